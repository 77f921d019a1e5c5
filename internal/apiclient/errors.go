package apiclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Fixed messages for failures that never reached the server.
const (
	ConnectivityMessage = "Unable to reach the server. Please check your connection."
	TimeoutMessage      = "The request timed out. Please try again."
	GenericMessage      = "Something went wrong. Please try again."
	InvalidResponse     = "The server returned an unexpected response."
)

// ErrResponseTooLarge is wrapped when a response body exceeds the client's
// read limit. The body is discarded rather than returned cut short.
var ErrResponseTooLarge = errors.New("apiclient: response body too large")

// Kind classifies an Error.
type Kind int

const (
	// KindServer covers non-success envelopes and non-2xx responses,
	// including 401s.
	KindServer Kind = iota + 1
	// KindConnectivity means no response was received.
	KindConnectivity
	// KindTimeout means the call deadline passed before a response arrived.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindConnectivity:
		return "connectivity"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the single error shape returned by every client operation.
// Message is always safe to show to a user.
type Error struct {
	Op         string
	Kind       Kind
	Message    string
	StatusCode int    // 0 when no response was received
	Code       string // machine-readable code from the envelope, if the server sent one
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels so callers can write errors.Is(err, ErrTimeout).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// Kind sentinels.
var (
	ErrServer       = &Error{Kind: KindServer}
	ErrConnectivity = &Error{Kind: KindConnectivity}
	ErrTimeout      = &Error{Kind: KindTimeout}
)

// IsUnauthorized reports whether err came from a 401 response. There is no
// refresh flow; callers typically send the user back to login.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func transportError(op string, err error) *Error {
	kind, msg := KindConnectivity, ConnectivityMessage
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind, msg = KindTimeout, TimeoutMessage
	}
	return &Error{Op: op, Kind: kind, Message: msg, Err: err}
}

func serverError(op string, status int, env *Envelope) *Error {
	e := &Error{Op: op, Kind: KindServer, StatusCode: status, Message: GenericMessage}
	if env != nil {
		if env.Message != "" {
			e.Message = env.Message
		}
		e.Code = env.Code
	}
	return e
}

// Stable error codes a backend may send in the envelope "code" field.
const (
	CodeForeignKey   = "foreign_key_violation"
	CodeDuplicateKey = "duplicate_key"
	CodeTypeMismatch = "type_mismatch"
)

var codeMessages = map[string]string{
	CodeForeignKey:   "The referenced record does not exist.",
	CodeDuplicateKey: "This record already exists.",
	CodeTypeMismatch: "One of the identifiers has the wrong format.",
}

// Backends without error codes leak database errors into the message. These
// fragments map the known ones onto the same descriptions.
var messageSignatures = []struct {
	fragment string
	code     string
}{
	{"violates foreign key constraint", CodeForeignKey},
	{"foreignkeyviolation", CodeForeignKey},
	{"duplicate key value", CodeDuplicateKey},
	{"uniqueviolation", CodeDuplicateKey},
	{"operator does not exist", CodeTypeMismatch},
	{"character varying = integer", CodeTypeMismatch},
}

// Describe returns a user-facing description of err. A machine-readable code
// wins; otherwise known database failure signatures in the message are
// translated, and anything else is returned as-is.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if msg, ok := codeMessages[apiErr.Code]; ok {
		return msg
	}
	lower := strings.ToLower(apiErr.Message)
	for _, sig := range messageSignatures {
		if strings.Contains(lower, sig.fragment) {
			return codeMessages[sig.code]
		}
	}
	return apiErr.Message
}
