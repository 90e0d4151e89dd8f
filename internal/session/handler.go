// AngelaMos | 2026
// handler.go

package session

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts under an already authenticated /dashboard router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.List)
	r.Post("/sessions/{sessionID}/revoke", h.Revoke)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	recs, err := h.service.ListActive(r.Context(), userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToSessionResponseList(recs, middleware.GetSessionID(r.Context())))
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "sessionID")

	revoked, err := h.service.Revoke(r.Context(), userID, sessionID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := RevokeResponse{Revoked: revoked}
	if revoked && sessionID == middleware.GetSessionID(r.Context()) {
		h.service.ClearCookie(w)
		resp.SignedOut = true
	}

	core.OK(w, resp)
}
