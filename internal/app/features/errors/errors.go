// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/system/respond"
)

// Handler serves the router's fallback responses as JSON.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// NotFound answers unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusNotFound, "Cannot "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed answers a known route hit with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusMethodNotAllowed, "Cannot "+r.Method+" "+r.URL.Path)
}

// Index answers the bare root with an empty list.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, []any{})
}
