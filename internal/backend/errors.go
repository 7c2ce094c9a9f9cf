package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind tags where a backend call failed.
type ErrorKind string

const (
	// KindNetwork: the request never produced an HTTP response.
	KindNetwork ErrorKind = "network"
	// KindBackend: the backend answered with a non-2xx status.
	KindBackend ErrorKind = "backend"
	// KindLocal: the request could not be built on our side.
	KindLocal ErrorKind = "local"
)

// Error is the only error type the client returns.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Body   []byte
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBackend:
		return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.Status, string(e.Body))
	default:
		return fmt.Sprintf("backend %s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus is the status a local caller should see for this failure.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindBackend:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ResponseBody is the backend body for backend errors and a JSON envelope
// otherwise.
func (e *Error) ResponseBody() []byte {
	if e.Kind == KindBackend && len(e.Body) > 0 {
		return e.Body
	}
	code := "backend_unreachable"
	if e.Kind == KindLocal {
		code = "internal_error"
	}
	body, _ := json.Marshal(map[string]string{"error": code})
	return body
}

// Code extracts the numeric backend error code from {"error":{"code":N}}.
// Returns 0 when the body carries none.
func (e *Error) Code() int {
	if e.Kind != KindBackend || len(e.Body) == 0 {
		return 0
	}
	var envelope struct {
		Error struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &envelope); err != nil {
		return 0
	}
	return envelope.Error.Code
}

// AsError unwraps err into *Error.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// IsNetwork reports a transport failure.
func IsNetwork(err error) bool {
	be, ok := AsError(err)
	return ok && be.Kind == KindNetwork
}

// HasCode reports a backend rejection carrying the given backend error code.
func HasCode(err error, code int) bool {
	be, ok := AsError(err)
	return ok && be.Code() == code
}
