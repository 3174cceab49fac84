// Package membership holds the pure rules over loaded users and projects:
// building view models and deciding whether a user is a member.
//
// Nothing here performs I/O.
package membership

import (
	"time"

	"github.com/dalemusser/teamgather/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberView is the public shape of a membership.
type MemberView struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// UserView is the public shape of a user. It never carries the password hash.
type UserView struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Email   string       `json:"email"`
	Members []MemberView `json:"members"`
}

// ProjectView is the public shape of a project.
type ProjectView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Members     []MemberView `json:"members"`
}

// isoMillis is ISO-8601 in UTC with millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t as ISO-8601 UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}

func BuildMemberView(m models.Member) MemberView {
	return MemberView{
		ID:        m.ID,
		ProjectID: m.ProjectID.Hex(),
		UserID:    m.UserID.Hex(),
		UserName:  m.UserName,
		UserEmail: m.UserEmail,
		Role:      m.Role,
		CreatedAt: FormatTime(m.CreatedAt),
		UpdatedAt: FormatTime(m.UpdatedAt),
	}
}

func buildMemberViews(ms []models.Member) []MemberView {
	out := make([]MemberView, 0, len(ms))
	for _, m := range ms {
		out = append(out, BuildMemberView(m))
	}
	return out
}

// BuildUserView keeps the stored member order.
func BuildUserView(u *models.User) UserView {
	return UserView{
		ID:      u.ID.Hex(),
		Name:    u.Name,
		Email:   u.Email,
		Members: buildMemberViews(u.Members),
	}
}

// BuildProjectView keeps the stored member order.
func BuildProjectView(p *models.Project) ProjectView {
	var desc *string
	if p.Description != nil {
		d := *p.Description
		desc = &d
	}
	return ProjectView{
		ID:          p.ID.Hex(),
		Name:        p.Name,
		Description: desc,
		Members:     buildMemberViews(p.Members),
	}
}

// FindMembership returns the membership of user in project only when both
// mirrors agree: the project's entry for the user and the user's entry for
// the project must exist and carry the same id. A torn write never counts
// as membership.
func FindMembership(project *models.Project, user *models.User) (models.Member, bool) {
	pm, ok := project.MemberFor(user.ID)
	if !ok {
		return models.Member{}, false
	}
	um, ok := user.MemberFor(project.ID)
	if !ok {
		return models.Member{}, false
	}
	if pm.ID != um.ID {
		return models.Member{}, false
	}
	return pm, true
}

// FindMembershipView is FindMembership over cached view models.
func FindMembershipView(project ProjectView, user UserView) (MemberView, bool) {
	var pm, um *MemberView
	for i := range project.Members {
		if project.Members[i].UserID == user.ID {
			pm = &project.Members[i]
			break
		}
	}
	if pm == nil {
		return MemberView{}, false
	}
	for i := range user.Members {
		if user.Members[i].ProjectID == project.ID {
			um = &user.Members[i]
			break
		}
	}
	if um == nil || pm.ID != um.ID {
		return MemberView{}, false
	}
	return *pm, true
}

// IsOwner reports whether m carries the owner role.
func IsOwner(m models.Member) bool {
	return m.Role == models.RoleOwner
}

// HasUser reports whether userID appears in the project's member list.
func HasUser(project *models.Project, userID primitive.ObjectID) bool {
	_, ok := project.MemberFor(userID)
	return ok
}

// UserIDs returns the ids of every member of the project, in store order.
func UserIDs(project *models.Project) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(project.Members))
	for _, m := range project.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// MemberIDs returns the member ids of the project, in store order.
func MemberIDs(project *models.Project) []string {
	ids := make([]string, 0, len(project.Members))
	for _, m := range project.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
