// Package httputil provides the uniform JSON envelope used by every
// handler: {"success": true, "data": ...} or {"success": false,
// "error": {...}}.
package httputil

import (
	"encoding/json"
	"net/http"

	svcerr "github.com/ConfSphere/conference_layer/internal/errors"
)

// ErrorBody is the wire shape of a failure.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// WriteError maps err onto the taxonomy and writes a failure envelope.
// Unknown errors surface as INTERNAL_ERROR without leaking the cause.
func WriteError(w http.ResponseWriter, err error) {
	serviceErr := svcerr.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = svcerr.Internal("", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serviceErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    string(serviceErr.Code),
			Message: serviceErr.Message,
			Details: serviceErr.Details,
		},
	})
}

// DecodeJSON decodes a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return svcerr.Validation("invalid request body")
	}
	return nil
}
