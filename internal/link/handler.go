// AngelaMos | 2026
// handler.go

package link

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
)

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
	r.Route("/links", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Add)
		r.Post("/quick-add", h.QuickAdd)
		r.Post("/reorder", h.Reorder)
		r.Post("/{linkID}/move", h.Move)
		r.Post("/{linkID}/delete", h.Delete)
	})
}

// RegisterPublicRoutes mounts the click-through redirect.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/l/{linkID}", h.Visit)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if !h.decode(w, r, &req) {
		return
	}

	l, err := h.service.Add(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToLinkResponse(l))
}

func (h *Handler) QuickAdd(w http.ResponseWriter, r *http.Request) {
	var req QuickAddRequest
	if !h.decode(w, r, &req) {
		return
	}

	l, err := h.service.QuickAdd(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.Created(w, ToLinkResponse(l))
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req ReorderRequest
	//nolint:errcheck // a malformed body reorders nothing
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.service.Reorder(r.Context(), middleware.GetUserID(r.Context()), req.Order); err != nil {
		core.HandleError(w, err)
		return
	}

	h.writeList(w, r)
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	err := h.service.Move(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "linkID"),
		r.URL.Query().Get("dir"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	h.writeList(w, r)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "linkID"),
	)
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) Visit(w http.ResponseWriter, r *http.Request) {
	dest, err := h.service.Visit(
		r.Context(),
		chi.URLParam(r, "linkID"),
		middleware.ClientIP(r),
		r.UserAgent(),
	)
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "link")
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	http.Redirect(w, r, dest, http.StatusFound)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToLinkResponseList(links))
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
