// Package auth authenticates API requests.
//
// A request carries a signed HS256 access token in the auth cookie or an
// Authorization: Bearer header. Authenticate verifies it, loads the user
// through a Loader (the cached read path) and puts a Principal in the
// request context. RequireSignedIn rejects requests without one.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/domain/membership"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Principal is the authenticated caller.
type Principal struct {
	ID    primitive.ObjectID
	Name  string
	Email string
}

// Loader resolves a user id to its view.
type Loader interface {
	UserInfo(ctx context.Context, userID primitive.ObjectID) (membership.UserView, error)
}

type ctxKey string

const principalKey ctxKey = "principal"

// CurrentUser returns the principal and whether one is present.
func CurrentUser(r *http.Request) (*Principal, bool) {
	p, ok := r.Context().Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// WithPrincipal returns r carrying p. Tests use it to skip token handling.
func WithPrincipal(r *http.Request, p *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// Authenticator is the token-checking middleware.
type Authenticator struct {
	Tokens  *Tokens
	Cookies *CookieCodec
	Users   Loader
	Log     *zap.Logger
}

func NewAuthenticator(tokens *Tokens, cookies *CookieCodec, users Loader, logger *zap.Logger) *Authenticator {
	return &Authenticator{Tokens: tokens, Cookies: cookies, Users: users, Log: logger}
}

// Authenticate attaches the principal when the request carries a valid
// token for an existing user. Otherwise the request continues anonymous.
// Store outages are reported rather than treated as signed out.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := a.Cookies.Token(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		id, err := a.Tokens.Verify(tok)
		if err != nil {
			a.Log.Debug("rejected access token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		uv, err := a.Users.UserInfo(r.Context(), id)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			next.ServeHTTP(w, r)
			return
		case err != nil:
			respond.Error(w, a.Log, err)
			return
		}
		next.ServeHTTP(w, WithPrincipal(r, &Principal{ID: id, Name: uv.Name, Email: uv.Email}))
	})
}

// RequireSignedIn answers 401 when no principal is present.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Message(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
