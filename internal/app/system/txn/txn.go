// Package txn runs multi-document MongoDB transactions.
//
// Every transaction goes Idle → InTransaction → Committed, or
// InTransaction → Aborted. The session belongs to the calling request and is
// ended on every exit path. There is no automatic retry: a failed callback
// or commit is returned to the caller.
package txn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// State is a step of the transaction lifecycle.
type State int

const (
	Idle State = iota
	InTransaction
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InTransaction:
		return "in_transaction"
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Runner opens sessions on a client.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run calls fn inside a transaction. fn must pass the context it receives to
// every store call so the writes join the session. If fn returns an error
// the transaction is aborted and that error is returned unchanged; commit
// failures are reported as apperr.ErrStoreUnavailable.
func (r *Runner) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	log := r.log.With(zap.String("txn", name))
	state := Idle

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %w", apperr.ErrStoreUnavailable, err)
	}
	// The session must be released even if ctx was cancelled.
	defer sess.EndSession(context.WithoutCancel(ctx))

	if err := sess.StartTransaction(); err != nil {
		return fmt.Errorf("%w: start transaction: %w", apperr.ErrStoreUnavailable, err)
	}
	state = InTransaction
	log.Debug("txn begin", zap.Stringer("state", state))

	sctx := mongo.NewSessionContext(ctx, sess)
	if err := fn(sctx); err != nil {
		if abortErr := sess.AbortTransaction(context.WithoutCancel(ctx)); abortErr != nil {
			log.Warn("txn abort failed", zap.Error(abortErr))
		}
		state = Aborted
		log.Debug("txn abort", zap.Stringer("state", state), zap.Error(err))
		if IsNotSupported(err) {
			return fmt.Errorf("%w: transactions not supported: %w", apperr.ErrStoreUnavailable, err)
		}
		return err
	}

	if err := sess.CommitTransaction(sctx); err != nil {
		state = Aborted
		log.Warn("txn commit failed", zap.Stringer("state", state), zap.Error(err))
		return fmt.Errorf("%w: commit: %w", apperr.ErrStoreUnavailable, err)
	}
	state = Committed
	log.Debug("txn commit", zap.Stringer("state", state))
	return nil
}

// notSupportedCodes are server codes returned by deployments that cannot run
// multi-document transactions (standalone mongod, some managed offerings).
var notSupportedCodes = map[int32]struct{}{
	20:  {}, // IllegalOperation
	51:  {}, // UnknownError on old standalone servers
	263: {}, // OperationNotSupportedInTransaction
}

var notSupportedWords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions. Messages are matched when at least two of the tell-tale
// phrases appear, case-insensitively.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if _, ok := notSupportedCodes[ce.Code]; ok {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	hits := 0
	for _, w := range notSupportedWords {
		if strings.Contains(msg, w) {
			hits++
		}
	}
	return hits >= 2
}
