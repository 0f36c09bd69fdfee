// Package problem implements the service's legacy error envelope: every
// failed request gets a JSON body of the shape reconciliation clients
// expect, `{status, message, details, arguments}`, at HTTP 403 regardless
// of the underlying error kind.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Envelope is the body written on every error response.
type Envelope struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Details   string            `json:"details,omitempty"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// Write logs err (if any) and writes the legacy error envelope to w.
func Write(w http.ResponseWriter, r *http.Request, message, details string, args map[string]string, cause error) {
	if cause != nil {
		logger := zerolog.Ctx(r.Context())
		logger.Warn().
			Err(cause).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	env := Envelope{
		Status:    "error",
		Message:   message,
		Details:   details,
		Arguments: args,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(env)
}
