// internal/app/features/projects/handler.go
package projects

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/auth"
	"github.com/dalemusser/teamgather/internal/app/system/normalize"
	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/domain/membership"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
)

// Service is the project surface of projectsvc.Service.
type Service interface {
	CreateProject(ctx context.Context, ownerID primitive.ObjectID, name string, description *string) (primitive.ObjectID, error)
	UpdateProject(ctx context.Context, projectID, actingID primitive.ObjectID, name string, description *string) error
	RemoveProject(ctx context.Context, projectID, actingID primitive.ObjectID) error
	UserProjects(ctx context.Context, userID primitive.ObjectID) ([]membership.ProjectView, error)
	ProjectInfo(ctx context.Context, projectID, principalID primitive.ObjectID) (membership.ProjectView, error)
	NonMembers(ctx context.Context, projectID, principalID primitive.ObjectID) ([]membership.UserView, error)
}

type Handler struct {
	Svc Service
	Log *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

// projectBody is the create and update payload.
type projectBody struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// normalize trims and sanitizes the payload. An empty description is
// stored as null.
func (b projectBody) normalize() (string, *string, error) {
	name := normalize.Text(b.Name)
	if n := utf8.RuneCountInString(name); n < 1 || n > maxNameLen {
		return "", nil, fmt.Errorf("name must be 1 to %d characters: %w", maxNameLen, apperr.ErrBadRequest)
	}
	desc := normalize.OptionalText(b.Description)
	if desc != nil && *desc == "" {
		desc = nil
	}
	if desc != nil && utf8.RuneCountInString(*desc) > maxDescriptionLen {
		return "", nil, fmt.Errorf("description must be at most %d characters: %w", maxDescriptionLen, apperr.ErrBadRequest)
	}
	return name, desc, nil
}

// principal returns the signed-in user. Routes sit behind RequireSignedIn,
// so a miss here is a wiring fault reported as 401.
func principal(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	p, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Unauthorized")
		return primitive.NilObjectID, false
	}
	return p.ID, true
}

// PathID parses a hex ObjectID route parameter. A malformed id is a 400.
func PathID(w http.ResponseWriter, r *http.Request, param string) (primitive.ObjectID, bool) {
	raw := normalize.ID(chi.URLParam(r, param))
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respond.Message(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", param))
		return primitive.NilObjectID, false
	}
	return id, true
}
