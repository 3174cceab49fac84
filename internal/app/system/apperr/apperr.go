// Package apperr defines the error taxonomy shared by the stores, the
// project service and the HTTP features.
//
// Errors are sentinels; wrap them with fmt.Errorf("...: %w", err) and test
// with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound: a referenced user or project does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTargetNotFound: the user a membership change names does not
	// exist. It also matches ErrNotFound.
	ErrTargetNotFound = fmt.Errorf("target user %w", ErrNotFound)
	// ErrForbidden: the principal is not a member, or not the owner.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict: duplicate membership or duplicate email.
	ErrConflict = errors.New("conflict")
	// ErrInternalConsistency: a write matched an unexpected number of
	// documents, which means the mirrors are out of sync or an update was lost.
	ErrInternalConsistency = errors.New("internal consistency failure")
	// ErrStoreUnavailable: transport or transaction infrastructure failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// Status maps err onto an HTTP status code. Unknown errors are 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err is one of the validation failures that
// are raised before any write.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrBadRequest)
}
