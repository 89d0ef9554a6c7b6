package responder

import (
	"errors"
	"fmt"
	"net/http"
)

// Payload is the JSON object carried in an error envelope.
type Payload map[string]any

// Error carries a structured payload and the HTTP status it must be written
// with. Handlers return it to short-circuit a request.
type Error struct {
	Status  int
	Payload Payload
}

// NewError builds a 400 Error.
func NewError(payload Payload) *Error {
	return &Error{Status: http.StatusBadRequest, Payload: payload}
}

// NewErrorWithStatus builds an Error with an explicit status.
func NewErrorWithStatus(status int, payload Payload) *Error {
	return &Error{Status: status, Payload: payload}
}

func (e *Error) Error() string {
	return fmt.Sprintf("responder: %d %v", e.Status, map[string]any(e.Payload))
}

// Result converts the error into an error Result.
func (e *Error) Result() Result {
	status := e.Status
	if status == 0 {
		status = http.StatusBadRequest
	}
	return Fail(status, e.Payload)
}

// AsError reports whether err carries an *Error and returns it.
func AsError(err error) (*Error, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

func Unauthorized() Result {
	return Fail(http.StatusUnauthorized, Payload{"error": "unauthorized"})
}

func ObjectNotFound() *Error {
	return NewErrorWithStatus(http.StatusNotFound, Payload{"error": "object_not_found"})
}

func InvalidData() Result {
	return Fail(http.StatusBadRequest, Payload{"error": "invalid_data"})
}

func MethodNotAllowed() Result {
	return Fail(http.StatusMethodNotAllowed, Payload{"error": "method_not_allowed"})
}

func InternalError() Result {
	return Fail(http.StatusInternalServerError, Payload{"error": "internal_error"})
}

func NotFound() Result {
	return Fail(http.StatusNotFound, Payload{"error": "not_found"})
}

// FieldErrors builds the 400 {"errors": {field: message}} payload.
func FieldErrors(fields map[string]string) *Error {
	return NewError(Payload{"errors": fields})
}
