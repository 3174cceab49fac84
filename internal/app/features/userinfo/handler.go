// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/auth"
	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/app/system/timeouts"
	"github.com/dalemusser/teamgather/internal/domain/membership"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Reader is the cached user read path.
type Reader interface {
	UserInfo(ctx context.Context, userID primitive.ObjectID) (membership.UserView, error)
}

// Handler serves the signed-in user's own record.
type Handler struct {
	Users Reader
	Log   *zap.Logger
}

func NewHandler(users Reader, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// ServeMe returns { "user": UserView }.
// GET /user/me
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "user info")
	defer cancel()

	uv, err := h.Users.UserInfo(ctx, p.ID)
	if errors.Is(err, apperr.ErrNotFound) {
		respond.Message(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"user": uv})
}
