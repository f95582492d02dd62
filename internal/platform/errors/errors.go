package errors

import (
	"errors"

	"github.com/louisbranch/dungeonkit/internal/platform/errors/i18n"
)

// Error pairs a failure with the code clients see and the fields its
// localized message template reads.
type Error struct {
	Code   Code
	Fields map[string]string
	Cause  error
}

// Wrap classifies cause under code. fields may be nil.
func Wrap(code Code, cause error, fields map[string]string) *Error {
	return &Error{Code: code, Fields: fields, Cause: cause}
}

// Error returns the cause text, or the code when there is no cause.
func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code)
	}
	return e.Cause.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// LocalizedMessage renders the catalog template for the code. Codes the
// catalog does not know fall back to the cause text.
func (e *Error) LocalizedMessage(locale string) string {
	catalog := i18n.GetCatalog(locale)
	if !catalog.Has(string(e.Code)) {
		return e.Error()
	}
	return catalog.Format(string(e.Code), e.Fields)
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
