package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/task-manager-api/internal/httpx"
	"github.com/ayush/task-manager-api/internal/media"
	"github.com/ayush/task-manager-api/internal/middleware"
	"github.com/ayush/task-manager-api/internal/models"
)

// Credentials checks logins and manages the tokens registered on users.
type Credentials interface {
	FindByCredentials(ctx context.Context, email, password string) (*models.User, error)
	GenerateAuthToken(ctx context.Context, u *models.User) (string, error)
	RevokeToken(ctx context.Context, u *models.User, token string) error
	RevokeAllTokens(ctx context.Context, u *models.User) error
}

// AttemptLimiter throttles repeated failed logins for one email.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Handler holds the /users HTTP handlers.
type Handler struct {
	users   *Service
	creds   Credentials
	limiter AttemptLimiter
}

// NewHandler builds the handler. limiter may be nil to disable throttling.
func NewHandler(users *Service, creds Credentials, limiter AttemptLimiter) *Handler {
	return &Handler{users: users, creds: creds, limiter: limiter}
}

// Register creates a new user and logs it in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.Create(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	token, err := h.creds.GenerateAuthToken(r.Context(), user)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, models.AuthResponse{User: user, Token: token})
}

// Login authenticates a user and issues a new token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := models.NormalizeEmail(req.Email)

	if h.limiter != nil {
		ok, err := h.limiter.Allow(r.Context(), email)
		if err != nil {
			slog.WarnContext(r.Context(), "login limiter unavailable", "error", err)
		} else if !ok {
			httpx.WriteMessage(w, http.StatusTooManyRequests, "too many failed login attempts, try again later")
			return
		}
	}

	user, err := h.creds.FindByCredentials(r.Context(), email, req.Password)
	if errors.Is(err, models.ErrAuthentication) {
		h.recordFailure(r.Context(), email)
		httpx.WriteMessage(w, http.StatusBadRequest, "unable to login")
		return
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	token, err := h.creds.GenerateAuthToken(r.Context(), user)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if h.limiter != nil {
		if err := h.limiter.Reset(r.Context(), email); err != nil {
			slog.WarnContext(r.Context(), "reset login limiter", "error", err)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, models.AuthResponse{User: user, Token: token})
}

func (h *Handler) recordFailure(ctx context.Context, email string) {
	if h.limiter == nil {
		return
	}
	if err := h.limiter.Fail(ctx, email); err != nil {
		slog.WarnContext(ctx, "record failed login", "error", err)
	}
}

// Logout revokes the token the request authenticated with.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	token, _ := middleware.TokenFromContext(r.Context())

	if err := h.creds.RevokeToken(r.Context(), user, token); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.Empty(w)
}

// LogoutAll revokes every token of the current user.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	if err := h.creds.RevokeAllTokens(r.Context(), user); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.Empty(w)
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	httpx.WriteJSON(w, http.StatusOK, user)
}

// UpdateMe applies an allow-listed patch to the current user.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	var patch models.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.users.Update(r.Context(), user, patch)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

// DeleteMe removes the current user and every task it owns.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	if err := h.users.Delete(r.Context(), user); err != nil {
		slog.ErrorContext(r.Context(), "delete account", "user_id", user.ID, "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

// UploadAvatar stores the image in the "upload" field as the user's avatar.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	file, err := media.ReadUpload(w, r, media.UploadField, media.MaxUploadBytes)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.users.SetAvatar(r.Context(), user, file); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.Empty(w)
}

// DeleteAvatar removes the user's avatar.
func (h *Handler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())

	if err := h.users.ClearAvatar(r.Context(), user); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.Empty(w)
}

// Avatar serves the PNG avatar of the user in the path.
func (h *Handler) Avatar(w http.ResponseWriter, r *http.Request) {
	avatar, err := h.users.Avatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(avatar)
}
