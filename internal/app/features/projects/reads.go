// internal/app/features/projects/reads.go
package projects

import (
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/app/system/timeouts"
)

// ServeList returns { "projects": [...] } for the signed-in user.
// GET /project/list
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	uid, ok := principal(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "project list")
	defer cancel()

	list, err := h.Svc.UserProjects(ctx, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"projects": list})
}

// ServeInfo returns { "project": ProjectView }. Members only.
// GET /project/{id}/info
func (h *Handler) ServeInfo(w http.ResponseWriter, r *http.Request) {
	uid, ok := principal(w, r)
	if !ok {
		return
	}
	pid, ok := PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "project info")
	defer cancel()

	pv, err := h.Svc.ProjectInfo(ctx, pid, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"project": pv})
}

// ServeNonMembers returns { "users": [...] }: every user not yet in the
// project, for the add-member picker. Members only.
// GET /project/{id}/users
func (h *Handler) ServeNonMembers(w http.ResponseWriter, r *http.Request) {
	uid, ok := principal(w, r)
	if !ok {
		return
	}
	pid, ok := PathID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "project non-members")
	defer cancel()

	users, err := h.Svc.NonMembers(ctx, pid, uid)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"users": users})
}
