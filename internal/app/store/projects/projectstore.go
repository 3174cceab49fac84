// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"time"

	"github.com/dalemusser/teamgather/internal/app/store/storeerr"
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
	return &Store{c: db.Collection("projects")}
}

// GetByID loads a project by ObjectID and validates it.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, storeerr.Wrap("load project", err)
	}
	if err := p.Validate(); err != nil {
		return nil, storeerr.Invalid("load project", err)
	}
	return &p, nil
}

// Create inserts a project with an empty member list. Members are pushed
// separately so both mirrors are written the same way.
func (s *Store) Create(ctx context.Context, name string, description *string) (models.Project, error) {
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: description,
		Members:     []models.Member{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return models.Project{}, storeerr.Invalid("create project", err)
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, storeerr.Wrap("create project", err)
	}
	return p, nil
}

// PushMember appends m to the project's member list and returns the
// modified count. It matches nothing if m.UserID is already a member, so a
// racing duplicate reports zero.
func (s *Store) PushMember(ctx context.Context, projectID primitive.ObjectID, m models.Member) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, storeerr.Invalid("push project member", err)
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID, "members.userId": bson.M{"$ne": m.UserID}},
		bson.M{"$push": bson.M{"members": m}},
	)
	if err != nil {
		return 0, storeerr.Wrap("push project member", err)
	}
	return res.ModifiedCount, nil
}

// PullMember removes the member entry with memberID and returns the
// modified count.
func (s *Store) PullMember(ctx context.Context, projectID primitive.ObjectID, memberID string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$pull": bson.M{"members": bson.M{"id": memberID}}},
	)
	if err != nil {
		return 0, storeerr.Wrap("pull project member", err)
	}
	return res.ModifiedCount, nil
}

// Delete removes the project document only while its member list still
// holds exactly memberIDs, and returns the deleted count. A member pushed or
// pulled since the caller read the project leaves the document in place
// and reports zero.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, memberIDs []string) (int64, error) {
	filter := bson.M{"_id": id, "members": bson.M{"$size": len(memberIDs)}}
	if len(memberIDs) > 0 {
		filter["members.id"] = bson.M{"$all": memberIDs}
	}
	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return 0, storeerr.Wrap("delete project", err)
	}
	return res.DeletedCount, nil
}

// UpdateInfo sets the scalar fields. updated_at always changes, so a
// matched document always reports one modification.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, description *string) (int64, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":        name,
			"name_ci":     text.Fold(name),
			"description": description,
			"updated_at":  time.Now().UTC(),
		}},
	)
	if err != nil {
		return 0, storeerr.Wrap("update project", err)
	}
	return res.ModifiedCount, nil
}

// ListByMember returns every project with userID in its member list,
// sorted by name.
func (s *Store) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"members.userId": userID}, opts)
	if err != nil {
		return nil, storeerr.Wrap("list projects", err)
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, storeerr.Wrap("list projects", err)
	}
	return projects, nil
}
