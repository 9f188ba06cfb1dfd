package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a Fault and decides its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindValidation
	KindVersionUnsupported
	KindBadRequest
)

// Fault is a domain failure carrying a user-safe Detail and an internal
// diagnostic Info. Only Detail ever reaches the client.
type Fault struct {
	Kind   Kind
	Detail string
	Info   string
	Err    error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Info, f.Err)
	}
	return f.Info
}

func (f *Fault) Unwrap() error { return f.Err }

// Status maps the fault kind to an HTTP status code.
func (f *Fault) Status() int {
	switch f.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindVersionUnsupported:
		return http.StatusUpgradeRequired
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewFault builds a Fault; info may use fmt verbs.
func NewFault(kind Kind, detail string, info string, args ...any) *Fault {
	if len(args) > 0 {
		info = fmt.Sprintf(info, args...)
	}
	return &Fault{Kind: kind, Detail: detail, Info: info}
}

// Wrap attaches a cause to the fault and returns it.
func (f *Fault) Wrap(err error) *Fault {
	f.Err = err
	return f
}

func Unauthenticated(detail, info string, args ...any) *Fault {
	return NewFault(KindUnauthenticated, detail, info, args...)
}

func Forbidden(detail, info string, args ...any) *Fault {
	return NewFault(KindForbidden, detail, info, args...)
}

func NotFound(detail, info string, args ...any) *Fault {
	return NewFault(KindNotFound, detail, info, args...)
}

func Conflict(detail, info string, args ...any) *Fault {
	return NewFault(KindConflict, detail, info, args...)
}

func Validation(detail, info string, args ...any) *Fault {
	return NewFault(KindValidation, detail, info, args...)
}

func BadRequest(detail, info string, args ...any) *Fault {
	return NewFault(KindBadRequest, detail, info, args...)
}

func VersionUnsupported(info string, args ...any) *Fault {
	return NewFault(KindVersionUnsupported, MsgVersionNotSupported, info, args...)
}

// Internal wraps an unexpected store failure.
func Internal(detail string, err error, info string, args ...any) *Fault {
	return NewFault(KindInternal, detail, info, args...).Wrap(err)
}

// AsFault extracts a Fault from err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err carries a Fault of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := AsFault(err)
	return ok && f.Kind == kind
}
