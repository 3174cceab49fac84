// internal/app/features/projects/actions.go
package projects

import (
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/app/system/timeouts"
)

// HandleCreate returns { "id": "<hex>" }.
// POST /project/create
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := principal(w, r)
	if !ok {
		return
	}
	var body projectBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	name, desc, err := body.normalize()
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create project")
	defer cancel()

	id, err := h.Svc.CreateProject(ctx, uid, name, desc)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]string{"id": id.Hex()})
}

// HandleUpdate replaces name and description. Owner only.
// PUT /project/{id}/update
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := principal(w, r)
	if !ok {
		return
	}
	pid, ok := PathID(w, r, "id")
	if !ok {
		return
	}
	var body projectBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	name, desc, err := body.normalize()
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update project")
	defer cancel()

	if err := h.Svc.UpdateProject(ctx, pid, uid, name, desc); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, []any{})
}

// HandleRemove deletes the project and every membership in it. Owner only.
// DELETE /project/{id}/remove
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	uid, ok := principal(w, r)
	if !ok {
		return
	}
	pid, ok := PathID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "remove project")
	defer cancel()

	if err := h.Svc.RemoveProject(ctx, pid, uid); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, []any{})
}
