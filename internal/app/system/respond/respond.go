// Package respond writes JSON responses and maps errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"go.uber.org/zap"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error maps err through apperr.Status. Client errors carry their message;
// server errors are logged and answered with a generic one so store
// details never leak.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed", zap.Int("status", status), zap.Error(err))
		}
		msg = http.StatusText(status)
	}
	JSON(w, status, ErrorBody{StatusCode: status, Error: http.StatusText(status), Message: msg})
}

// Message writes a client error with a fixed message.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorBody{StatusCode: status, Error: http.StatusText(status), Message: msg})
}

// Decode reads a JSON body into dst. Unknown fields are rejected.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(apperr.ErrBadRequest, err)
	}
	return nil
}
