// internal/app/features/members/handler.go
package members

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/features/projects"
	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/auth"
	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/app/system/timeouts"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgUserNotFound  = "The requested user information was not found."
	msgAlreadyMember = "This user is already a member of the project."
)

// Service is the membership surface of projectsvc.Service.
type Service interface {
	AddMember(ctx context.Context, projectID, actingID, targetID primitive.ObjectID) (models.Member, error)
	RemoveMember(ctx context.Context, projectID, actingID, targetID primitive.ObjectID) error
}

// Handler is the feature-level handler for project memberships.
type Handler struct {
	Svc Service
	Log *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

type createBody struct {
	UserID string `json:"userId"`
}

// HandleCreate adds a user to the project. Owner only.
// POST /project/{id}/member/create
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	pid, ok := projects.PathID(w, r, "id")
	if !ok {
		return
	}
	var body createBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	target, err := primitive.ObjectIDFromHex(body.UserID)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "userId must be a valid id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "add member")
	defer cancel()

	_, err = h.Svc.AddMember(ctx, pid, p.ID, target)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, []any{})
	case errors.Is(err, apperr.ErrConflict):
		respond.Message(w, http.StatusConflict, msgAlreadyMember)
	case errors.Is(err, apperr.ErrTargetNotFound):
		respond.Message(w, http.StatusNotFound, msgUserNotFound)
	default:
		respond.Error(w, h.Log, err)
	}
}

// HandleRemove drops a user from the project. Owner only; the owner's own
// membership cannot be removed.
// DELETE /project/{id}/member/{userId}/remove
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	pid, ok := projects.PathID(w, r, "id")
	if !ok {
		return
	}
	target, ok := projects.PathID(w, r, "userId")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "remove member")
	defer cancel()

	if err := h.Svc.RemoveMember(ctx, pid, p.ID, target); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, []any{})
}
