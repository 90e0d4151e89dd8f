// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
)

type SessionManager interface {
	Start(w http.ResponseWriter, r *http.Request, userID string) (string, error)
	End(w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	service   *Service
	sessions  SessionManager
	validator *validator.Validate
}

func NewHandler(service *Service, sessions SessionManager) *Handler {
	return &Handler{
		service:   service,
		sessions:  sessions,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts /auth. authLimiter guards register and login,
// sensitiveLimiter guards the password reset flow.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authLimiter, sensitiveLimiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/register", h.Register)
		r.With(authLimiter).Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveLimiter)
			r.Post("/forgot", h.Forgot)
			r.Get("/reset/{token}", h.CheckReset)
			r.Post("/reset/{token}", h.Reset)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, ToUserResponse(user))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Login(
		r.Context(),
		req,
		r.UserAgent(),
		middleware.ClientIP(r),
	)
	if err != nil {
		h.handleError(w, err)
		return
	}

	if _, err := h.sessions.Start(w, r, user.ID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(w, r); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req ForgotRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Forgot(r.Context(), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) CheckReset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CheckResetToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, MessageResponse{Message: "reset link is valid"})
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, MessageResponse{
		Message: "Password has been reset. You can now log in.",
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrHoneypot):
		core.BadRequest(w, "bad request")
	case errors.Is(err, ErrPasswordMismatch):
		core.JSONError(w, core.ValidationError("confirm_password", "passwords do not match"))
	case errors.Is(err, ErrAccountExists):
		core.JSONError(w, core.ConflictError("username", "username or email already taken"))
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.UnauthorizedError("invalid username or password"))
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	default:
		core.InternalServerError(w, err)
	}
}
