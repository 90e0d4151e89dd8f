// AngelaMos | 2026
// handler.go

package routing

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
)

// ProfileRenderer writes a tenant's public profile.
type ProfileRenderer interface {
	ServePublic(w http.ResponseWriter, r *http.Request, userID string)
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts under an already authenticated /dashboard router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/routes", h.Get)
	r.Post("/routes", h.Set)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRoutesResponse(entry))
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	var req SetRoutesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	entry, err := h.service.SetRoutes(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToRoutesResponse(entry))
}

// Middleware intercepts requests that resolve to a public profile and
// passes everything else to the application router.
func Middleware(
	service *Service,
	renderer ProfileRenderer,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			decision := service.Resolve(r.Context(), r.Host, r.URL.Path)
			if decision.Outcome == PublicProfile {
				renderer.ServePublic(w, r, decision.UserID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
