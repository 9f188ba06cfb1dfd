package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
)

// User-facing messages. They are safe to write to the wire.
const (
	MsgInvalidCredentials         = "Invalid credentials"
	MsgInvalidCredentialsDisabled = "Invalid credentials or inactive account"
	MsgNotAuthentified            = "Not authentified"
	MsgForbiddenAccess            = "Forbidden access: User cannot access this resource"
	MsgVersionNotSupported        = "Version not supported anymore"

	MsgItemAlreadyExists  = "Item with the same name already exists"
	MsgItemNotFound       = "Item not found"
	MsgFailedToDeleteItem = "Internal error: Failed to delete item"

	MsgRoleNotFound        = "Role not found"
	MsgUserAlreadyExists   = "Username already taken"
	MsgUserNotFound        = "User not found"
	MsgFailedToUpdateUser  = "Internal error: Failed to update user"
	MsgFailedToDisableUser = "Internal error: Failed to disable user"

	MsgCannotEditUserNonAdmin   = "Forbidden access: Cannot edit a different User without being an admin"
	MsgCannotEditAdminUser      = "Forbidden access: Cannot edit an admin user"
	MsgCannotSetSelfAdmin       = "Forbidden access: Cannot elevate your own permissions to Admin"
	MsgCannotActivateAsNonAdmin = "Forbidden access: Cannot enable/disable a user as a non-admin user"

	MsgInternalServerError = "Internal server error"
	MsgCannotParseRequest  = "Cannot parse request"
)
