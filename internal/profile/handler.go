// AngelaMos | 2026
// handler.go

package profile

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
	"github.com/carterperez-dev/whome/internal/storage"
)

const multipartOverhead = 1 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
	maxBody   int64
}

// NewHandler limits profile form bodies to the avatar size plus room for
// the text fields.
func NewHandler(service *Service, maxAvatarSize int64) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		maxBody:   maxAvatarSize + multipartOverhead,
	}
}

// RegisterRoutes mounts under an already authenticated /dashboard router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profile", h.Get)
	r.Post("/profile", h.Update)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.list(Projects))
		r.Post("/", h.AddProject)
		r.Post("/reorder", h.reorder(Projects))
		r.Post("/{itemID}/move", h.move(Projects))
		r.Post("/{itemID}/delete", h.delete(Projects))
	})

	r.Route("/experiences", func(r chi.Router) {
		r.Get("/", h.list(Experiences))
		r.Post("/", h.AddExperience)
		r.Post("/reorder", h.reorder(Experiences))
		r.Post("/{itemID}/move", h.move(Experiences))
		r.Post("/{itemID}/delete", h.delete(Experiences))
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", h.list(Contacts))
		r.Post("/", h.AddContact)
		r.Post("/{itemID}/delete", h.delete(Contacts))
	})
}

// RegisterPublicRoutes mounts the username profile page.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/u/{username}", h.ByUsername)
}

func (h *Handler) ByUsername(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.PublicByUsername(r.Context(), chi.URLParam(r, "username"))
	h.writePublic(w, view, err)
}

// ServePublic renders the page for a user the routing middleware already
// resolved from the host or a vanity path.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request, userID string) {
	view, err := h.service.Public(r.Context(), userID)
	h.writePublic(w, view, err)
}

func (h *Handler) writePublic(w http.ResponseWriter, view *View, err error) {
	if errors.Is(err, core.ErrNotFound) {
		core.NotFound(w, "page")
		return
	}
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPublicResponse(view))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

// Update accepts JSON, or multipart/form-data when an avatar is attached.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var (
		req    UpdateProfileRequest
		avatar *storage.Upload
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			core.BadRequest(w, "invalid form body")
			return
		}

		req = UpdateProfileRequest{
			FullName:  r.FormValue("full_name"),
			Birthday:  r.FormValue("birthday"),
			City:      r.FormValue("city"),
			Workplace: r.FormValue("workplace"),
			Bio:       r.FormValue("bio"),
			Theme:     r.FormValue("theme"),
			CustomCSS: r.FormValue("custom_css"),
		}

		file, header, err := r.FormFile("avatar")
		switch {
		case err == nil:
			defer file.Close() //nolint:errcheck // read-only multipart part
			avatar = &storage.Upload{
				Filename: header.Filename,
				Size:     header.Size,
				Body:     file,
			}
		case !errors.Is(err, http.ErrMissingFile):
			core.BadRequest(w, "invalid avatar upload")
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), req, avatar)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p))
}

func (h *Handler) AddProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.AddProject(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, ToProjectResponse(p))
}

func (h *Handler) AddExperience(w http.ResponseWriter, r *http.Request) {
	var req CreateExperienceRequest
	if !h.decode(w, r, &req) {
		return
	}

	e, err := h.service.AddExperience(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, ToExperienceResponse(e))
}

func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !h.decode(w, r, &req) {
		return
	}

	c, err := h.service.AddContact(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.handleError(w, err)
		return
	}

	core.Created(w, ContactResponse{ID: c.ID, Label: c.Label, Value: c.Value})
}

func (h *Handler) list(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.GetUserID(ctx)

		var (
			data any
			err  error
		)
		switch section {
		case Projects:
			var projects []Project
			projects, err = h.service.ListProjects(ctx, userID)
			data = ToProjectResponseList(projects)
		case Experiences:
			var experiences []Experience
			experiences, err = h.service.ListExperiences(ctx, userID)
			data = ToExperienceResponseList(experiences)
		default:
			var contacts []Contact
			contacts, err = h.service.ListContacts(ctx, userID)
			data = ToContactResponseList(contacts)
		}
		if err != nil {
			core.InternalServerError(w, err)
			return
		}

		core.OK(w, data)
	}
}

func (h *Handler) reorder(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReorderRequest
		//nolint:errcheck // a malformed body reorders nothing
		_ = json.NewDecoder(r.Body).Decode(&req)

		err := h.service.Reorder(r.Context(), section, middleware.GetUserID(r.Context()), req.Order)
		if err != nil {
			h.handleError(w, err)
			return
		}

		h.list(section)(w, r)
	}
}

func (h *Handler) move(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.Move(
			r.Context(),
			section,
			middleware.GetUserID(r.Context()),
			chi.URLParam(r, "itemID"),
			r.URL.Query().Get("dir"),
		)
		if err != nil {
			h.handleError(w, err)
			return
		}

		h.list(section)(w, r)
	}
}

func (h *Handler) delete(section Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.service.Delete(
			r.Context(),
			section,
			middleware.GetUserID(r.Context()),
			chi.URLParam(r, "itemID"),
		)
		if err != nil {
			h.handleError(w, err)
			return
		}

		core.NoContent(w)
	}
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
	case core.IsAppError(err):
		core.JSONError(w, err)
	case errors.Is(err, storage.ErrUnsupportedType):
		core.JSONError(w, core.ValidationError("avatar", "avatar must be png, jpg, gif or webp"))
	case errors.Is(err, storage.ErrTooLarge):
		core.JSONError(w, core.ValidationError("avatar", "avatar file is too large"))
	case errors.Is(err, ErrUploadsDisabled):
		core.JSONError(w, core.ValidationError("avatar", "avatar uploads are disabled"))
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "profile")
	default:
		core.InternalServerError(w, err)
	}
}
