package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/whisperly/backend/internal/apperr"
	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/respond"
	"github.com/whisperly/backend/internal/store"
)

var (
	errInvalidCredentials = apperr.New(apperr.Unauthenticated, "Invalid credentials")
	errNotAuthenticated   = apperr.New(apperr.Unauthenticated, "Not authenticated")
	errUserNotFound       = apperr.New(apperr.NotFound, "User not found")
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users        UserStore
	sessions     *SessionStore
	secureCookie bool
}

func NewHandler(users UserStore, sessions *SessionStore, secureCookie bool) *Handler {
	return &Handler{users: users, sessions: sessions, secureCookie: secureCookie}
}

// SignUp creates a new user. New users accept messages by default.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := validateSignUp(req); err != nil {
		respond.Error(w, r, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, string(hashed))
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		respond.Error(w, r, apperr.New(apperr.Conflict, "Username is already taken"))
		return
	case errors.Is(err, store.ErrEmailTaken):
		respond.Error(w, r, apperr.New(apperr.Conflict, "User already exists with this email"))
		return
	case err != nil:
		respond.Error(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "user signed up", slog.String("username", user.Username))
	respond.Message(w, http.StatusCreated, "User registered successfully")
}

// SignIn authenticates a user by email or username and creates a session.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		respond.Error(w, r, apperr.Invalid("Identifier and password are required"))
		return
	}

	user, err := h.users.GetUserByIdentifier(r.Context(), req.Identifier)
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, r, errInvalidCredentials)
		return
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respond.Error(w, r, errInvalidCredentials)
		return
	}

	sid, err := h.sessions.Create(r.Context(), Identity{UserID: user.ID, Username: user.Username})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionTTL / time.Second),
	})

	slog.InfoContext(r.Context(), "user signed in", slog.String("username", user.Username))
	respond.OK(w, http.StatusOK, respond.Body{"user": user})
}

// SignOut destroys the current session.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookie)
	if err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.WarnContext(r.Context(), "failed to delete session", slog.Any("error", err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})

	respond.Message(w, http.StatusOK, "Signed out")
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := FromContext(r.Context())
	if id.IsAnonymous() {
		respond.Error(w, r, errNotAuthenticated)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, r, errUserNotFound)
		return
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{"user": user})
}

// CheckUsernameUnique reports whether a username is free to take. A taken
// username is not an error: the response is 200 with success false.
func (h *Handler) CheckUsernameUnique(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if err := ValidateUsername(username); err != nil {
		respond.Error(w, r, err)
		return
	}

	exists, err := h.users.UsernameExists(r.Context(), username)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if exists {
		respond.Fail(w, http.StatusOK, "Username is already taken")
		return
	}

	respond.Message(w, http.StatusOK, "Username is unique")
}

// PublicProfile backs the public /u/{username} page.
func (h *Handler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if errors.Is(err, store.ErrNotFound) {
		respond.Error(w, r, errUserNotFound)
		return
	}
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{
		"message":             "User exists",
		"username":            user.Username,
		"isAcceptingMessages": user.AcceptingMessages,
	})
}
