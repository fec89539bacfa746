// Package httputil holds the JSON response helpers shared by all HTTP
// handlers.
package httputil

import (
	"encoding/json"
	"net/http"

	pkgerrors "soundsense/pkg/errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error onto the shared JSON error envelope. Internal
// error detail stays in logs and is not echoed to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != pkgerrors.CodeInternal {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, pkgerrors.ToHTTPStatus(code), body)
}
