// AngelaMos | 2026
// dashboard.go

package profile

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/link"
	"github.com/carterperez-dev/whome/internal/middleware"
	"github.com/carterperez-dev/whome/internal/routing"
	"github.com/carterperez-dev/whome/internal/session"
)

type RouteGetter interface {
	Get(ctx context.Context, userID string) (*routing.Entry, error)
}

type SessionLister interface {
	ListActive(ctx context.Context, userID string) ([]session.Record, error)
}

type OverviewResponse struct {
	Profile     ProfileResponse           `json:"profile"`
	Links       []link.LinkResponse       `json:"links"`
	Routes      routing.RoutesResponse    `json:"routes"`
	Projects    []ProjectResponse         `json:"projects"`
	Experiences []ExperienceResponse      `json:"experiences"`
	Contacts    []ContactResponse         `json:"contacts"`
	Sessions    []session.SessionResponse `json:"sessions"`
}

// Overview serves the owner's whole dashboard in one response.
type Overview struct {
	profiles *Service
	links    LinkLister
	routes   RouteGetter
	sessions SessionLister
}

func NewOverview(
	profiles *Service,
	links LinkLister,
	routes RouteGetter,
	sessions SessionLister,
) *Overview {
	return &Overview{
		profiles: profiles,
		links:    links,
		routes:   routes,
		sessions: sessions,
	}
}

// RegisterRoutes mounts under an already authenticated /dashboard router.
func (o *Overview) RegisterRoutes(r chi.Router) {
	r.Get("/", o.Get)
}

func (o *Overview) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var (
		p           *Profile
		links       []link.Link
		entry       *routing.Entry
		projects    []Project
		experiences []Experience
		contacts    []Contact
		sessions    []session.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { p, err = o.profiles.Get(gctx, userID); return })
	g.Go(func() (err error) { links, err = o.links.List(gctx, userID); return })
	g.Go(func() (err error) { entry, err = o.routes.Get(gctx, userID); return })
	g.Go(func() (err error) { projects, err = o.profiles.ListProjects(gctx, userID); return })
	g.Go(func() (err error) { experiences, err = o.profiles.ListExperiences(gctx, userID); return })
	g.Go(func() (err error) { contacts, err = o.profiles.ListContacts(gctx, userID); return })
	g.Go(func() (err error) { sessions, err = o.sessions.ListActive(gctx, userID); return })

	if err := g.Wait(); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, OverviewResponse{
		Profile:     ToProfileResponse(p),
		Links:       link.ToLinkResponseList(links),
		Routes:      routing.ToRoutesResponse(entry),
		Projects:    ToProjectResponseList(projects),
		Experiences: ToExperienceResponseList(experiences),
		Contacts:    ToContactResponseList(contacts),
		Sessions:    session.ToSessionResponseList(sessions, middleware.GetSessionID(ctx)),
	})
}
