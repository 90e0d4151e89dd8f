// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/link"
	"github.com/carterperez-dev/whome/internal/ordering"
	"github.com/carterperez-dev/whome/internal/storage"
)

var ErrUploadsDisabled = fmt.Errorf("avatar uploads are disabled: %w", core.ErrInvalidInput)

// Orderer is satisfied by *ordering.Manager.
type Orderer interface {
	Reorder(ctx context.Context, list ordering.List, ownerID string, ids []string) error
	Move(ctx context.Context, list ordering.List, ownerID, itemID string, dir ordering.Direction) error
}

type AvatarSaver interface {
	Save(ctx context.Context, userID string, upload storage.Upload) (string, error)
}

type LinkLister interface {
	List(ctx context.Context, userID string) ([]link.Link, error)
}

type Service struct {
	repo    Repository
	orderer Orderer
	links   LinkLister
	avatars AvatarSaver
	logger  *slog.Logger
}

// NewService builds the profile service. avatars may be nil, in which case
// uploads are rejected.
func NewService(
	repo Repository,
	orderer Orderer,
	links LinkLister,
	avatars AvatarSaver,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:    repo,
		orderer: orderer,
		links:   links,
		avatars: avatars,
		logger:  logger,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// Update replaces the text fields. The avatar only changes when a new
// upload is supplied and stored successfully.
func (s *Service) Update(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
	avatar *storage.Upload,
) (*Profile, error) {
	p := &Profile{
		UserID:    userID,
		FullName:  optional(req.FullName),
		Birthday:  optional(req.Birthday),
		City:      optional(req.City),
		Workplace: optional(req.Workplace),
		Bio:       optional(req.Bio),
		Theme:     optional(req.Theme),
		CustomCSS: optional(req.CustomCSS),
	}

	if avatar != nil {
		if s.avatars == nil {
			return nil, ErrUploadsDisabled
		}

		url, err := s.avatars.Save(ctx, userID, *avatar)
		if err != nil {
			return nil, fmt.Errorf("save avatar: %w", err)
		}
		p.AvatarPath = sql.NullString{String: url, Valid: true}
	}

	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}

	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) AddProject(
	ctx context.Context,
	userID string,
	req CreateProjectRequest,
) (*Project, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, core.ValidationError("title", "project title is required")
	}

	p := &Project{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: optional(req.Description),
		URL:         optional(req.URL),
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) AddExperience(
	ctx context.Context,
	userID string,
	req CreateExperienceRequest,
) (*Experience, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return nil, core.ValidationError("role", "role is required")
	}

	e := &Experience{
		ID:          uuid.New().String(),
		UserID:      userID,
		Role:        role,
		Company:     optional(req.Company),
		StartDate:   optional(req.StartDate),
		EndDate:     optional(req.EndDate),
		Description: optional(req.Description),
	}
	if err := s.repo.CreateExperience(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) AddContact(
	ctx context.Context,
	userID string,
	req CreateContactRequest,
) (*Contact, error) {
	label := strings.TrimSpace(req.Label)
	value := strings.TrimSpace(req.Value)
	if label == "" || value == "" {
		return nil, core.ValidationError("label", "both label and value are required")
	}

	c := &Contact{
		ID:     uuid.New().String(),
		UserID: userID,
		Label:  label,
		Value:  value,
	}
	if err := s.repo.CreateContact(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) ListProjects(ctx context.Context, userID string) ([]Project, error) {
	return s.repo.ListProjects(ctx, userID)
}

func (s *Service) ListExperiences(ctx context.Context, userID string) ([]Experience, error) {
	return s.repo.ListExperiences(ctx, userID)
}

func (s *Service) ListContacts(ctx context.Context, userID string) ([]Contact, error) {
	return s.repo.ListContacts(ctx, userID)
}

// Delete removes one owned item from the named section. Foreign or
// malformed ids are a silent no-op.
func (s *Service) Delete(ctx context.Context, section Section, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	switch section {
	case Projects:
		return s.repo.DeleteProject(ctx, userID, id)
	case Experiences:
		return s.repo.DeleteExperience(ctx, userID, id)
	case Contacts:
		return s.repo.DeleteContact(ctx, userID, id)
	default:
		return fmt.Errorf("delete from %q: %w", section, core.ErrInvalidInput)
	}
}

func (s *Service) Reorder(ctx context.Context, section Section, userID string, ids []string) error {
	list, ok := section.list()
	if !ok {
		return fmt.Errorf("reorder %q: %w", section, core.ErrInvalidInput)
	}
	return s.orderer.Reorder(ctx, list, userID, ids)
}

func (s *Service) Move(ctx context.Context, section Section, userID, id, dir string) error {
	list, ok := section.list()
	if !ok {
		return fmt.Errorf("move in %q: %w", section, core.ErrInvalidInput)
	}

	d, err := ordering.ParseDirection(strings.ToLower(dir))
	if err != nil {
		return core.ValidationError("dir", "direction must be up or down")
	}

	return s.orderer.Move(ctx, list, userID, id, d)
}

// Public loads every section of a user's page concurrently.
func (s *Service) Public(ctx context.Context, userID string) (*View, error) {
	ctx, span := core.StartSpan(ctx, "profile.public",
		attribute.String("user.id", userID),
	)
	defer span.End()

	var view View
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.repo.GetProfile(gctx, userID)
		view.Profile = p
		return err
	})
	g.Go(func() error {
		links, err := s.links.List(gctx, userID)
		view.Links = links
		return err
	})
	g.Go(func() error {
		projects, err := s.repo.ListProjects(gctx, userID)
		view.Projects = projects
		return err
	})
	g.Go(func() error {
		experiences, err := s.repo.ListExperiences(gctx, userID)
		view.Experiences = experiences
		return err
	})
	g.Go(func() error {
		contacts, err := s.repo.ListContacts(gctx, userID)
		view.Contacts = contacts
		return err
	})

	if err := g.Wait(); err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
		}
		return nil, fmt.Errorf("load public profile: %w", err)
	}

	return &view, nil
}

func (s *Service) PublicByUsername(ctx context.Context, username string) (*View, error) {
	userID, err := s.repo.FindUserID(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	return s.Public(ctx, userID)
}

func optional(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
