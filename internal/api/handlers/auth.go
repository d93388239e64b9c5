package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wildtrails/tours-api/internal/api/middleware"
	"github.com/wildtrails/tours-api/internal/config"
	"github.com/wildtrails/tours-api/internal/domain"
	"github.com/wildtrails/tours-api/internal/repository"
	"github.com/wildtrails/tours-api/internal/service"
)

// AuthHandler owns the session lifecycle and the self-service account
// routes. Admin-facing user CRUD goes through the generic resource.
type AuthHandler struct {
	auth  *service.AuthService
	users repository.UserRepository
	cfg   *config.Config
}

func NewAuthHandler(auth *service.AuthService, users repository.UserRepository, cfg *config.Config) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, cfg: cfg}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	result, err := h.auth.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusCreated, result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, r, domain.BadRequest("please provide email and password"))
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, result)
}

// Logout overwrites the session cookie with an already-expired one.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondMessage(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "token sent to email")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	result, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, result)
}

func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, service.ErrInvalidSession)
		return
	}
	var req updatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	result, err := h.auth.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, service.ErrInvalidSession)
		return
	}
	respondData(w, http.StatusOK, user)
}

// UpdateMe accepts only profile fields. Password changes have their own
// route and are rejected here outright rather than silently dropped.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, service.ErrInvalidSession)
		return
	}

	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if _, found := body["password"]; found {
		respondError(w, r, domain.BadRequest("this route is not for password updates, please use /update-password"))
		return
	}
	if _, found := body["currentPassword"]; found {
		respondError(w, r, domain.BadRequest("this route is not for password updates, please use /update-password"))
		return
	}

	if name, ok := body["name"].(string); ok {
		user.Name = strings.TrimSpace(name)
	}
	if email, ok := body["email"].(string); ok {
		user.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if photo, ok := body["photo"].(string); ok {
		user.Photo = photo
	}
	if err := user.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.users.Update(r.Context(), user); err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// DeleteMe deactivates the account; the row stays for bookings and
// reviews that reference it. Inactive users drop out of listings and
// cannot log in.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, service.ErrInvalidSession)
		return
	}
	if err := h.users.SetColumns(r.Context(), user.ID, map[string]any{"active": false}); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sendToken writes the session both ways: an httpOnly cookie for
// browsers and the token in the body for API clients.
func (h *AuthHandler) sendToken(w http.ResponseWriter, code int, result *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.Environment == "production",
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, code, envelope{
		Status: "success",
		Data: map[string]any{
			"token": result.Token,
			"user":  result.User,
		},
	})
}
