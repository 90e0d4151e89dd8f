// AngelaMos | 2026
// service.go

package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/metrics"
	"github.com/carterperez-dev/whome/internal/ordering"
)

// Orderer is satisfied by *ordering.Manager.
type Orderer interface {
	Reorder(ctx context.Context, list ordering.List, ownerID string, ids []string) error
	Move(ctx context.Context, list ordering.List, ownerID, itemID string, dir ordering.Direction) error
}

type Service struct {
	repo    Repository
	orderer Orderer
	logger  *slog.Logger
}

func NewService(repo Repository, orderer Orderer, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		orderer: orderer,
		logger:  logger,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]Link, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Add(
	ctx context.Context,
	userID string,
	req CreateLinkRequest,
) (*Link, error) {
	label := strings.TrimSpace(req.Label)
	target := strings.TrimSpace(req.URL)
	if label == "" || target == "" {
		return nil, core.ValidationError("label", "both label and URL are required")
	}

	return s.create(ctx, &Link{
		UserID:    userID,
		Label:     label,
		URL:       target,
		Tags:      optional(req.Tags),
		GroupName: optional(req.GroupName),
		ThumbURL:  optional(req.ThumbURL),
	})
}

// QuickAdd builds the canonical profile URL for a known platform and
// appends it like any other link.
func (s *Service) QuickAdd(
	ctx context.Context,
	userID string,
	req QuickAddRequest,
) (*Link, error) {
	p, ok := platforms[strings.ToLower(req.Platform)]
	handle := strings.TrimPrefix(strings.TrimSpace(req.Handle), "@")
	if !ok || handle == "" {
		return nil, core.ValidationError("platform", "invalid quick-add submission")
	}

	return s.create(ctx, &Link{
		UserID: userID,
		Label:  p.label,
		URL:    p.prefix + url.PathEscape(handle),
	})
}

func (s *Service) create(ctx context.Context, l *Link) (*Link, error) {
	l.ID = uuid.New().String()
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) Reorder(ctx context.Context, userID string, ids []string) error {
	return s.orderer.Reorder(ctx, ordering.Links, userID, ids)
}

func (s *Service) Move(ctx context.Context, userID, linkID, dir string) error {
	d, err := ordering.ParseDirection(strings.ToLower(dir))
	if err != nil {
		return core.ValidationError("dir", "direction must be up or down")
	}
	return s.orderer.Move(ctx, ordering.Links, userID, linkID, d)
}

// Delete removes the caller's link. Unknown or foreign ids change nothing
// and report no error.
func (s *Service) Delete(ctx context.Context, userID, linkID string) error {
	if _, err := uuid.Parse(linkID); err != nil {
		return nil
	}
	return s.repo.Delete(ctx, userID, linkID)
}

// Visit records a click and returns where to send the visitor.
func (s *Service) Visit(ctx context.Context, linkID, ip, userAgent string) (string, error) {
	ctx, span := core.StartSpan(ctx, "link.visit",
		attribute.String("link.id", linkID),
	)
	defer span.End()

	if _, err := uuid.Parse(linkID); err != nil {
		return "", fmt.Errorf("visit %q: %w", linkID, core.ErrNotFound)
	}

	dest, err := s.repo.RecordVisit(ctx, Click{
		LinkID:    linkID,
		IP:        ip,
		UserAgent: userAgent,
	})
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			core.SetSpanError(ctx, err)
			s.logger.Error("click ledger write failed",
				"link_id", linkID,
				"error", err,
			)
		}
		return "", err
	}

	metrics.LinkClicksTotal.Inc()
	return dest, nil
}

func optional(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
