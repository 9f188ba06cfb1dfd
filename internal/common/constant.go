// Package common contains shared constants, sentinel errors and typed faults
// used across itemkeeper components.
package common

const (
	// VersionHeaderName carries the client version checked by the version gate.
	VersionHeaderName = "x-version"

	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"
)

// Role names stored in the roles table.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	// TokenLength is the number of characters in access and refresh tokens.
	TokenLength = 128

	// MaxResultsPerPage caps list endpoints.
	MaxResultsPerPage = 20
)
