// Package httpkit holds small helpers shared by all HTTP handlers.
package httpkit

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/thissudhir/buttercut-ai-video-editor-backend/internal/pkg/errors"
)

type ErrorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteErr(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	var env ErrorEnvelope
	env.Error.Code = code
	env.Error.Message = msg
	env.Error.Details = details

	WriteJSON(w, status, env)
}

// WriteError maps a domain error to its HTTP status and envelope. Unknown
// errors become opaque 500s so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if apperrors.As(err, &appErr) {
		var details map[string]any
		if len(appErr.Fields) > 0 {
			details = appErr.Fields
		}
		WriteErr(w, appErr.HTTPStatus(), string(appErr.Code), appErr.Message, details)
		return
	}

	WriteErr(w, http.StatusInternalServerError, string(apperrors.CodeInternal), "internal server error", nil)
}
