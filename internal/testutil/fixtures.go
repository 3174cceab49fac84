package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/teamgather/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with no memberships.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Password:  "$2a$10$fixturefixturefixturefixturefixturefixturefixturefixt",
		Members:   []models.Member{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateProjectOwnedBy inserts a project with owner as its only member and
// mirrors the membership onto the owner. It bypasses transactions.
func (f *Fixtures) CreateProjectOwnedBy(ctx context.Context, name string, owner models.User) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	m, err := models.NewMember(p.ID, &owner, models.RoleOwner, now)
	if err != nil {
		f.t.Fatalf("failed to build owner member: %v", err)
	}
	p.Members = []models.Member{m}

	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	if _, err := f.db.Collection("users").UpdateByID(ctx, owner.ID, bson.M{"$push": bson.M{"members": m}}); err != nil {
		f.t.Fatalf("failed to mirror owner member: %v", err)
	}
	return p
}

// ReloadUser reads a user back from the database.
func (f *Fixtures) ReloadUser(ctx context.Context, id primitive.ObjectID) models.User {
	f.t.Helper()
	var u models.User
	if err := f.db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		f.t.Fatalf("failed to reload user: %v", err)
	}
	return u
}

// ReloadProject reads a project back. ok is false if it no longer exists.
func (f *Fixtures) ReloadProject(ctx context.Context, id primitive.ObjectID) (models.Project, bool) {
	f.t.Helper()
	var p models.Project
	err := f.db.Collection("projects").FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.Project{}, false
	}
	if err != nil {
		f.t.Fatalf("failed to reload project: %v", err)
	}
	return p, true
}
