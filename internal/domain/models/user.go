// internal/domain/models/user.go
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account. Members lists every project the user belongs to and
// mirrors the matching entries in Project.Members.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password" json:"-"` // bcrypt hash
	Members  []Member           `bson:"members" json:"members"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

var (
	errUserID    = errors.New("user id is required")
	errUserName  = errors.New("user name is required")
	errUserEmail = errors.New("user email is required")
)

// Validate checks a user loaded from or written to the store, including
// every embedded member.
func (u *User) Validate() error {
	switch {
	case u.ID.IsZero():
		return errUserID
	case strings.TrimSpace(u.Name) == "":
		return errUserName
	case strings.TrimSpace(u.Email) == "":
		return errUserEmail
	}
	for i, m := range u.Members {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("members[%d]: %w", i, err)
		}
		if m.UserID != u.ID {
			return fmt.Errorf("members[%d]: userId %s does not match user %s", i, m.UserID.Hex(), u.ID.Hex())
		}
	}
	return nil
}

// MemberFor returns the user's copy of its membership in projectID.
func (u *User) MemberFor(projectID primitive.ObjectID) (Member, bool) {
	for _, m := range u.Members {
		if m.ProjectID == projectID {
			return m, true
		}
	}
	return Member{}, false
}
