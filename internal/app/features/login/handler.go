// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/auth"
	"github.com/dalemusser/teamgather/internal/app/system/normalize"
	"github.com/dalemusser/teamgather/internal/app/system/ratelimit"
	"github.com/dalemusser/teamgather/internal/app/system/respond"
	"github.com/dalemusser/teamgather/internal/app/system/timeouts"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgEmailTaken  = "This email address is not available."
	msgBadSignin   = "Your account information was not found\nor your password is incorrect."
	msgRateLimited = "Too many sign-in attempts. Please wait a minute before trying again."
)

// UserStore is what sign-up and sign-in need from the user store.
type UserStore interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionFlusher drops a user's cached entries on sign-out.
type SessionFlusher interface {
	SignOut(ctx context.Context, userID primitive.ObjectID)
}

type Handler struct {
	Users   UserStore
	Flusher SessionFlusher
	Tokens  *auth.Tokens
	Cookies *auth.CookieCodec
	Limiter *ratelimit.SigninLimiter
	Log     *zap.Logger
}

func NewHandler(users UserStore, flusher SessionFlusher, tokens *auth.Tokens, cookies *auth.CookieCodec, limiter *ratelimit.SigninLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   users,
		Flusher: flusher,
		Tokens:  tokens,
		Cookies: cookies,
		Limiter: limiter,
		Log:     logger,
	}
}

type signUpBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp creates an account and signs it in.
// POST /auth/signup
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.CheckIP(r) {
		respond.Message(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}
	var body signUpBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	name := normalize.Name(body.Name)
	email := normalize.Email(body.Email)
	if n := utf8.RuneCountInString(name); n < 1 || n > 100 {
		respond.Message(w, http.StatusBadRequest, "name must be between 1 and 100 characters")
		return
	}
	if !validate.SimpleEmailValid(email) {
		respond.Message(w, http.StatusBadRequest, "email must be an email")
		return
	}
	if err := auth.CheckPasswordStrength(body.Password); err != nil {
		respond.Message(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sign up")
	defer cancel()

	_, err := h.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		respond.Message(w, http.StatusBadRequest, msgEmailTaken)
		return
	case !errors.Is(err, apperr.ErrNotFound):
		respond.Error(w, h.Log, err)
		return
	}

	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	u, err := h.Users.Create(ctx, models.User{Name: name, Email: email, Password: hash})
	if errors.Is(err, apperr.ErrConflict) {
		respond.Message(w, http.StatusBadRequest, msgEmailTaken)
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()))
	h.issue(w, u.ID)
}

// HandleSignIn checks credentials and sets the auth cookie. An unknown
// email and a wrong password get the same answer.
// POST /auth/signin
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var body signInBody
	if err := respond.Decode(r, &body); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	email := normalize.Email(body.Email)
	if email == "" || body.Password == "" {
		respond.Message(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if h.Limiter != nil && !h.Limiter.Check(r, email) {
		respond.Message(w, http.StatusTooManyRequests, msgRateLimited)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sign in")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		respond.Message(w, http.StatusNotFound, msgBadSignin)
		return
	}
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if !auth.PasswordMatches(u.Password, body.Password) {
		respond.Message(w, http.StatusNotFound, msgBadSignin)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.issue(w, u.ID)
}

// HandleSignOut clears the auth cookie and, when the caller is signed in,
// drops their cached entries.
// GET or POST /auth/signout
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if p, ok := auth.CurrentUser(r); ok {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sign out")
		defer cancel()
		h.Flusher.SignOut(ctx, p.ID)
	}
	h.Cookies.Clear(w)
	respond.JSON(w, http.StatusOK, []any{})
}

func (h *Handler) issue(w http.ResponseWriter, userID primitive.ObjectID) {
	tok, exp, err := h.Tokens.Issue(userID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Cookies.Set(w, tok, exp); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, []any{})
}
