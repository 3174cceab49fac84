// internal/domain/models/member.go
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// Member is one membership, embedded on both sides of the relation:
// Project.Members holds the project's copy and User.Members holds the user's
// copy. Both copies share the same ID.
type Member struct {
	ID        string             `bson:"id" json:"id"`
	ProjectID primitive.ObjectID `bson:"projectId" json:"projectId"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	UserName  string             `bson:"userName" json:"userName"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	Role      string             `bson:"role" json:"role"` // owner | member

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

var (
	errMemberID      = errors.New("member id is required")
	errMemberProject = errors.New("member projectId is required")
	errMemberUser    = errors.New("member userId is required")
	errMemberRole    = errors.New(`member role must be "owner" or "member"`)
	errMemberTimes   = errors.New("member timestamps are required")
)

// NewMember builds a membership for user u in project p. The id is a UUIDv7
// so members sort by creation time.
func NewMember(projectID primitive.ObjectID, u *User, role string, now time.Time) (Member, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Member{}, err
	}
	m := Member{
		ID:        id.String(),
		ProjectID: projectID,
		UserID:    u.ID,
		UserName:  u.Name,
		UserEmail: u.Email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return m, m.Validate()
}

// IsValidRole reports whether role is one of the member roles.
func IsValidRole(role string) bool {
	return role == RoleOwner || role == RoleMember
}

// Validate checks every field of a member record.
func (m Member) Validate() error {
	switch {
	case strings.TrimSpace(m.ID) == "":
		return errMemberID
	case m.ProjectID.IsZero():
		return errMemberProject
	case m.UserID.IsZero():
		return errMemberUser
	case !IsValidRole(m.Role):
		return errMemberRole
	case m.CreatedAt.IsZero() || m.UpdatedAt.IsZero():
		return errMemberTimes
	}
	return nil
}
