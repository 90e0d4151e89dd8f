// AngelaMos | 2026
// service.go

package routing

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/metrics"
)

var vanityPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type Service struct {
	repo      Repository
	platform  map[string]struct{}
	validator *validator.Validate
	logger    *slog.Logger
}

// NewService takes the hostnames the application itself is served on.
// Those can never be claimed as a custom domain.
func NewService(repo Repository, platformHosts []string, logger *slog.Logger) *Service {
	platform := make(map[string]struct{}, len(platformHosts))
	for _, h := range platformHosts {
		if h = NormalizeHost(h); h != "" {
			platform[h] = struct{}{}
		}
	}

	return &Service{
		repo:      repo,
		platform:  platform,
		validator: validator.New(),
		logger:    logger,
	}
}

func (s *Service) isPlatformHost(host string) bool {
	_, ok := s.platform[host]
	return ok
}

func (s *Service) Get(ctx context.Context, userID string) (*Entry, error) {
	entry, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return &Entry{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// SetRoutes validates and stores both routing fields as one unit. An empty
// value clears that field.
func (s *Service) SetRoutes(
	ctx context.Context,
	userID string,
	req SetRoutesRequest,
) (*Entry, error) {
	vanity := strings.ToLower(strings.TrimSpace(req.VanityPath))
	domain := NormalizeHost(req.CustomDomain)

	if vanity != "" {
		if !vanityPattern.MatchString(vanity) {
			return nil, core.ValidationError(
				FieldVanityPath,
				"vanity path may only contain lowercase letters, digits and hyphens",
			)
		}
		if IsReserved(vanity) {
			return nil, core.ValidationError(
				FieldVanityPath,
				"that vanity path is reserved",
			)
		}
	}

	if domain != "" {
		if s.isPlatformHost(domain) {
			return nil, core.ValidationError(
				FieldCustomDomain,
				"that domain is reserved",
			)
		}
		if err := s.validator.Var(domain, "fqdn"); err != nil {
			return nil, core.ValidationError(
				FieldCustomDomain,
				"custom domain must be a fully qualified hostname",
			)
		}
	}

	entry := &Entry{
		UserID:       userID,
		VanityPath:   nullable(vanity),
		CustomDomain: nullable(domain),
	}

	if err := s.repo.Set(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// Resolve decides where a request goes. Custom domains win over paths and
// claim every non-reserved path on their host; vanity paths only match a
// single segment. Platform hosts never take the custom-domain branch.
// Lookup failures are logged and fall through.
func (s *Service) Resolve(ctx context.Context, host, path string) Decision {
	ctx, span := core.StartSpan(ctx, "routing.resolve",
		attribute.String("http.host", host),
		attribute.String("http.path", path),
	)
	defer span.End()

	segment, single := FirstSegment(path)
	segment = strings.ToLower(segment)
	reserved := IsReserved(segment)

	normalized := NormalizeHost(host)
	if normalized != "" && !reserved && !s.isPlatformHost(normalized) {
		userID, err := s.repo.FindUserByDomain(ctx, normalized)
		switch {
		case err == nil:
			metrics.RouteResolutionsTotal.WithLabelValues(metrics.OutcomeCustomDomain).Inc()
			return Decision{Outcome: PublicProfile, UserID: userID, Via: metrics.OutcomeCustomDomain}
		case !errors.Is(err, core.ErrNotFound):
			s.lookupFailed(ctx, "custom_domain", err)
		}
	}

	if reserved || segment == "" || !single {
		metrics.RouteResolutionsTotal.WithLabelValues(metrics.OutcomeApplication).Inc()
		return Decision{Outcome: Application}
	}

	userID, err := s.repo.FindUserByVanity(ctx, segment)
	switch {
	case err == nil:
		metrics.RouteResolutionsTotal.WithLabelValues(metrics.OutcomeVanity).Inc()
		return Decision{Outcome: PublicProfile, UserID: userID, Via: metrics.OutcomeVanity}
	case !errors.Is(err, core.ErrNotFound):
		s.lookupFailed(ctx, "vanity_path", err)
	}

	metrics.RouteResolutionsTotal.WithLabelValues(metrics.OutcomeApplication).Inc()
	return Decision{Outcome: Application}
}

func (s *Service) lookupFailed(ctx context.Context, kind string, err error) {
	core.SetSpanError(ctx, err)
	metrics.RouteResolutionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
	s.logger.Error("route lookup failed",
		"kind", kind,
		"error", err,
	)
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
