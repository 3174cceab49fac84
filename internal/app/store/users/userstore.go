// internal/app/store/users/userstore.go
package userstore

// Every method takes the caller's context. When that context carries a
// mongo session (see system/txn) the operation joins its transaction.

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/teamgather/internal/app/store/storeerr"
	"github.com/dalemusser/teamgather/internal/app/system/normalize"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID and validates it.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, storeerr.Wrap("load user", err)
	}
	if err := u.Validate(); err != nil {
		return nil, storeerr.Invalid("load user", err)
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, storeerr.Wrap("load user by email", err)
	}
	if err := u.Validate(); err != nil {
		return nil, storeerr.Invalid("load user by email", err)
	}
	return &u, nil
}

var errPasswordRequired = errors.New("password hash is required")

// Create inserts a new user with no memberships. A duplicate email is
// reported as apperr.ErrConflict.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Members = []models.Member{}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if u.Password == "" {
		return models.User{}, storeerr.Invalid("create user", errPasswordRequired)
	}
	if err := u.Validate(); err != nil {
		return models.User{}, storeerr.Invalid("create user", err)
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, storeerr.Wrap("create user", err)
	}
	return u, nil
}

// PushMember appends m to the user's member list and returns the modified
// count. A user already holding a member for m.ProjectID is not matched.
func (s *Store) PushMember(ctx context.Context, userID primitive.ObjectID, m models.Member) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, storeerr.Invalid("push user member", err)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "members.projectId": bson.M{"$ne": m.ProjectID}},
		bson.M{"$push": bson.M{"members": m}},
	)
	if err != nil {
		return 0, storeerr.Wrap("push user member", err)
	}
	return res.ModifiedCount, nil
}

// PullMember removes the member entry with memberID and returns the modified
// count.
func (s *Store) PullMember(ctx context.Context, userID primitive.ObjectID, memberID string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"members": bson.M{"id": memberID}}},
	)
	if err != nil {
		return 0, storeerr.Wrap("pull user member", err)
	}
	return res.ModifiedCount, nil
}

// ListExcluding returns every user whose id is not in ids, sorted by name.
func (s *Store) ListExcluding(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$nin": ids}}, opts)
	if err != nil {
		return nil, storeerr.Wrap("list users", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeerr.Wrap("list users", err)
	}
	return users, nil
}
