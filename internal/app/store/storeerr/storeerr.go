// Package storeerr translates mongo-driver errors into the apperr taxonomy.
package storeerr

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

// Wrap classifies err and prefixes it with op. nil stays nil.
func Wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	case IsDuplicate(err):
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrConflict, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// Invalid reports a stored document that fails validation. Such a document
// can only come from a torn or foreign write.
func Invalid(op string, err error) error {
	return fmt.Errorf("%s: invalid document: %w: %w", op, apperr.ErrInternalConsistency, err)
}

// IsDuplicate reports an E11000 duplicate key error.
func IsDuplicate(err error) bool {
	return wafflemongo.IsDup(err) || mongo.IsDuplicateKeyError(err)
}
