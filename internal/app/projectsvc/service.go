// Package projectsvc keeps the two membership mirrors (User.members and
// Project.members) in step and owns cache invalidation for them.
//
// Every mutation follows the same sequence: check preconditions with plain
// reads, run the writes for both mirrors inside one transaction, and only
// after commit drop every cache entry that embeds the changed data.
// Precondition failures never open a transaction. Inside the transaction
// the project and users are read again and the checks repeated, so the
// writes always follow the member list the transaction itself sees. A push, pull or delete
// that does not touch exactly one document aborts the transaction with
// apperr.ErrInternalConsistency.
package projectsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/cache"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UserStore is the subset of the user store the service writes through.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	PushMember(ctx context.Context, userID primitive.ObjectID, m models.Member) (int64, error)
	PullMember(ctx context.Context, userID primitive.ObjectID, memberID string) (int64, error)
	ListExcluding(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// ProjectStore is the subset of the project store the service writes through.
type ProjectStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	Create(ctx context.Context, name string, description *string) (models.Project, error)
	PushMember(ctx context.Context, projectID primitive.ObjectID, m models.Member) (int64, error)
	PullMember(ctx context.Context, projectID primitive.ObjectID, memberID string) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID, memberIDs []string) (int64, error)
	UpdateInfo(ctx context.Context, id primitive.ObjectID, name string, description *string) (int64, error)
	ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Project, error)
}

// Transactor runs fn inside one store transaction. fn must use the context
// it is given for every write.
type Transactor interface {
	Run(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type Service struct {
	users    UserStore
	projects ProjectStore
	tx       Transactor
	cache    *cache.Cache
	log      *zap.Logger
	now      func() time.Time

	// invalidateTimeout bounds the post-commit cache step, which runs on a
	// context detached from the request.
	invalidateTimeout time.Duration
}

func New(users UserStore, projects ProjectStore, tx Transactor, c *cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		users:             users,
		projects:          projects,
		tx:                tx,
		cache:             c,
		log:               logger,
		now:               time.Now,
		invalidateTimeout: 5 * time.Second,
	}
}

// expectOne returns a check for a store write's (count, error) result. A
// count other than one becomes an internal-consistency error, which aborts
// the enclosing transaction.
//
//	err := expectOne("push user member")(s.users.PushMember(ctx, id, m))
func expectOne(op string) func(n int64, err error) error {
	return func(n int64, err error) error {
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%s: touched %d documents, want 1: %w", op, n, apperr.ErrInternalConsistency)
		}
		return nil
	}
}
