package attendance

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable failure codes sent alongside the message.
const (
	CodeDuplicateKey = "duplicate_key"
	CodeForeignKey   = "foreign_key_violation"
)

// Error is a failure the HTTP layer can render as-is.
type Error struct {
	Status  int
	Message string
	Code    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func fail(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

func badRequest(msg string) *Error { return fail(http.StatusBadRequest, msg) }
func notFound(msg string) *Error   { return fail(http.StatusNotFound, msg) }
func forbidden(msg string) *Error  { return fail(http.StatusForbidden, msg) }

// storeError turns repository failures into responses. notFoundMsg is used
// for ErrNotFound; constraint violations carry a code.
func storeError(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound) && notFoundMsg != "":
		return &Error{Status: http.StatusNotFound, Message: notFoundMsg, Err: err}
	case errors.Is(err, ErrDuplicate):
		return &Error{Status: http.StatusBadRequest, Message: "This record already exists.", Code: CodeDuplicateKey, Err: err}
	case errors.Is(err, ErrForeignKey):
		return &Error{Status: http.StatusBadRequest, Message: "Referenced record does not exist.", Code: CodeForeignKey, Err: err}
	}
	return &Error{Status: http.StatusInternalServerError, Message: "An unexpected error occurred.", Err: err}
}

// AsError extracts a renderable error, defaulting to a 500.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Status: http.StatusInternalServerError, Message: "An unexpected error occurred.", Err: err}
}
