// internal/domain/models/project.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project owns a list of members; exactly one of them has RoleOwner.
type Project struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Description *string            `bson:"description" json:"description"`
	Members     []Member           `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

var (
	errProjectID   = errors.New("project id is required")
	errProjectName = errors.New("project name is required")
	errTwoOwners   = errors.New("project has more than one owner")
	errDupMember   = errors.New("user appears more than once in project members")
)

// Validate checks a project and its embedded members. A project with no
// members is valid: it only exists in that state inside the create
// transaction, before the owner is pushed.
func (p *Project) Validate() error {
	switch {
	case p.ID.IsZero():
		return errProjectID
	case strings.TrimSpace(p.Name) == "":
		return errProjectName
	}
	owners := 0
	seen := make(map[primitive.ObjectID]struct{}, len(p.Members))
	for i, m := range p.Members {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("members[%d]: %w", i, err)
		}
		if m.ProjectID != p.ID {
			return fmt.Errorf("members[%d]: projectId %s does not match project %s", i, m.ProjectID.Hex(), p.ID.Hex())
		}
		if _, dup := seen[m.UserID]; dup {
			return errDupMember
		}
		seen[m.UserID] = struct{}{}
		if m.Role == RoleOwner {
			owners++
		}
	}
	if owners > 1 {
		return errTwoOwners
	}
	return nil
}

// MemberFor returns the project's copy of userID's membership.
func (p *Project) MemberFor(userID primitive.ObjectID) (Member, bool) {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
