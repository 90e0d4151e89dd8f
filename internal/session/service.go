// AngelaMos | 2026
// service.go

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/whome/internal/config"
	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/metrics"
	"github.com/carterperez-dev/whome/internal/middleware"
)

type Service struct {
	repo   Repository
	store  Store
	codec  *Codec
	cfg    config.SessionConfig
	logger *slog.Logger
}

func NewService(
	repo Repository,
	store Store,
	codec *Codec,
	cfg config.SessionConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		store:  store,
		codec:  codec,
		cfg:    cfg,
		logger: logger,
	}
}

// Start opens a new session for userID, writes its cookie and records it.
// Any session id the client already held is discarded.
func (s *Service) Start(
	w http.ResponseWriter,
	r *http.Request,
	userID string,
) (string, error) {
	ctx := r.Context()
	sessionID := uuid.New().String()

	data := Data{UserID: userID, CreatedAt: time.Now().UTC()}
	if err := s.store.Create(ctx, sessionID, data, s.cfg.MaxAge); err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("create").Inc()
		return "", fmt.Errorf("start session: %w", core.ErrExternalService)
	}

	value, err := s.codec.Encode(sessionID)
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	rec := &Record{
		SessionID: sessionID,
		UserID:    userID,
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
	}
	if err := s.repo.Touch(ctx, rec); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	s.setCookie(w, value)
	return sessionID, nil
}

// VerifySession resolves the request's cookie to an active session and
// refreshes its record. Anything short of that yields core.ErrUnauthorized
// so the request continues anonymously.
func (s *Service) VerifySession(
	r *http.Request,
) (*middleware.SessionClaims, error) {
	ctx := r.Context()

	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, fmt.Errorf("verify session: %w", core.ErrUnauthorized)
	}

	sessionID, err := s.codec.Decode(cookie.Value)
	if err != nil {
		return nil, fmt.Errorf("verify session: %w (%w)", core.ErrUnauthorized, err)
	}

	data, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("verify session: %w", core.ErrUnauthorized)
	}
	if err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("verify session: %w: %w", core.ErrExternalService, err)
	}

	rec := &Record{
		SessionID: sessionID,
		UserID:    data.UserID,
		UserAgent: r.UserAgent(),
		IP:        middleware.ClientIP(r),
	}
	if err := s.repo.Touch(ctx, rec); err != nil {
		if errors.Is(err, core.ErrTokenRevoked) {
			s.destroy(ctx, sessionID)
			return nil, fmt.Errorf("verify session: %w", core.ErrUnauthorized)
		}
		return nil, fmt.Errorf("verify session: %w", err)
	}

	if err := s.store.Touch(ctx, sessionID, s.cfg.MaxAge); err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("touch").Inc()
		s.logger.Warn("session store touch failed",
			"session_id", sessionID,
			"error", err,
		)
	}

	return &middleware.SessionClaims{
		UserID:    data.UserID,
		SessionID: sessionID,
	}, nil
}

func (s *Service) ListActive(
	ctx context.Context,
	userID string,
) ([]Record, error) {
	recs, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return recs, nil
}

// Revoke switches off a session owned by userID and destroys its state in
// the external store. A store failure is logged and counted; the record
// stays revoked either way. Revoking a session the user does not own is a
// silent no-op.
func (s *Service) Revoke(
	ctx context.Context,
	userID, sessionID string,
) (bool, error) {
	ctx, span := core.StartSpan(ctx, "session.revoke",
		attribute.String("user.id", userID),
		attribute.String("session.id", sessionID),
	)
	defer span.End()

	revoked, err := s.repo.Deactivate(ctx, userID, sessionID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return false, fmt.Errorf("revoke session: %w", err)
	}
	if !revoked {
		return false, nil
	}

	metrics.SessionRevocationsTotal.Inc()
	s.destroy(ctx, sessionID)

	return true, nil
}

// RevokeAll switches off every session of userID and destroys their store
// state. Store failures are logged; the records stay revoked.
func (s *Service) RevokeAll(ctx context.Context, userID string) error {
	ctx, span := core.StartSpan(ctx, "session.revoke_all",
		attribute.String("user.id", userID),
	)
	defer span.End()

	ids, err := s.repo.DeactivateAll(ctx, userID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("revoke all sessions: %w", err)
	}

	for _, id := range ids {
		metrics.SessionRevocationsTotal.Inc()
		s.destroy(ctx, id)
	}

	return nil
}

// End logs out the current session.
func (s *Service) End(w http.ResponseWriter, r *http.Request) error {
	userID := middleware.GetUserID(r.Context())
	sessionID := middleware.GetSessionID(r.Context())

	s.ClearCookie(w)

	if userID == "" || sessionID == "" {
		return nil
	}

	if _, err := s.repo.Deactivate(r.Context(), userID, sessionID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	s.destroy(r.Context(), sessionID)

	return nil
}

func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) setCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) destroy(ctx context.Context, sessionID string) {
	if err := s.store.Destroy(ctx, sessionID); err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("destroy").Inc()
		core.AddSpanEvent(ctx, "session.store.destroy_failed",
			attribute.String("error", err.Error()),
		)
		s.logger.Error("session store destroy failed",
			"session_id", sessionID,
			"error", err,
		)
	}
}
