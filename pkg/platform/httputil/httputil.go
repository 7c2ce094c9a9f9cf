// Package httputil centralizes JSON response writing so every participant
// answers with the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "idsim/pkg/domain-errors"
)

// StatusError is implemented by errors that already know the HTTP answer,
// such as a verification backend rejection that should be passed through.
type StatusError interface {
	error
	HTTPStatus() int
	ResponseBody() []byte
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a JSON error envelope. Internal errors never
// leak their description.
func WriteError(w http.ResponseWriter, err error) {
	var se StatusError
	if errors.As(err, &se) {
		body := se.ResponseBody()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(se.HTTPStatus())
		if len(body) > 0 {
			_, _ = w.Write(body)
		}
		return
	}

	code := dErrors.CodeOf(err)
	resp := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp["error_description"] = de.Message
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeJSON decodes the request body into v. An empty body leaves v untouched.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
