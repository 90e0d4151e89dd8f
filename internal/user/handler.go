// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
)

// SessionEnder signs the caller out once their account is gone. RevokeAll
// runs before the delete so sessions on other devices die with it.
type SessionEnder interface {
	RevokeAll(ctx context.Context, userID string) error
	End(w http.ResponseWriter, r *http.Request) error
}

type Handler struct {
	service  *Service
	sessions SessionEnder
}

func NewHandler(service *Service, sessions SessionEnder) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
	}
}

// RegisterRoutes mounts under an already authenticated /dashboard router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.GetMe)
	r.Delete("/account", h.DeleteAccount)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.sessions.RevokeAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "user")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.sessions.End(w, r); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
