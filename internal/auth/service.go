// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/metrics"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("username or email already taken")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrHoneypot           = errors.New("honeypot field filled")
)

const forgotMessage = "If that email exists, a reset link has been generated."

type UserInfo struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByUsername(ctx context.Context, username string) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Create(
		ctx context.Context,
		username, email, passwordHash string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Config struct {
	ResetTTL time.Duration
	// ExposeResetURL returns the reset link in the response. There is no
	// mailer, so this is on outside production.
	ExposeResetURL bool
	// Passwords defaults to core.DefaultPasswordParams.
	Passwords *core.PasswordHasher
}

type Service struct {
	repo      Repository
	users     UserProvider
	cfg       Config
	passwords *core.PasswordHasher
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	users UserProvider,
	cfg Config,
	logger *slog.Logger,
) *Service {
	passwords := cfg.Passwords
	if passwords == nil {
		passwords = core.NewPasswordHasher(core.DefaultPasswordParams)
	}

	return &Service{
		repo:      repo,
		users:     users,
		cfg:       cfg,
		passwords: passwords,
		logger:    logger,
	}
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*UserInfo, error) {
	if req.Website != "" {
		return nil, ErrHoneypot
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	exists, err := s.users.Exists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Username, req.Email, passwordHash)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login checks credentials and records the attempt. Unknown usernames still
// pay for a hash verification so timing does not reveal which names exist.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*UserInfo, error) {
	if req.Website != "" {
		return nil, ErrHoneypot
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = s.passwords.Check(req.Password, "")
			metrics.LoginAttemptsTotal.WithLabelValues("unknown_user").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := s.passwords.Check(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	s.logAttempt(ctx, LoginLog{
		UserID:    user.ID,
		IP:        ipAddress,
		UserAgent: userAgent,
		Success:   valid,
	})

	if !valid {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	if newHash != "" {
		//nolint:errcheck // best-effort rehash upgrade
		_ = s.users.UpdatePassword(ctx, user.ID, newHash)
	}

	return user, nil
}

// Forgot issues a reset token when the email belongs to a user. The
// response is identical either way, apart from the development-only link.
func (s *Service) Forgot(
	ctx context.Context,
	req ForgotRequest,
) (*ForgotResponse, error) {
	if req.Website != "" {
		return nil, ErrHoneypot
	}

	resp := &ForgotResponse{Message: forgotMessage}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, core.ErrNotFound) {
		return resp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}

	token, err := core.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.repo.CreateResetToken(ctx, &ResetToken{
		TokenHash: core.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.ResetTTL),
	}); err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}

	if s.cfg.ExposeResetURL {
		resp.ResetURL = "/auth/reset/" + token
	}

	return resp, nil
}

func (s *Service) CheckResetToken(ctx context.Context, token string) error {
	stored, err := s.repo.FindResetToken(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("check reset token: %w", core.ErrTokenInvalid)
		}
		return fmt.Errorf("check reset token: %w", err)
	}

	if stored.Used {
		return fmt.Errorf("check reset token: %w", core.ErrTokenInvalid)
	}
	if stored.IsExpired() {
		return fmt.Errorf("check reset token: %w", core.ErrTokenExpired)
	}

	return nil
}

func (s *Service) ResetPassword(
	ctx context.Context,
	token string,
	req ResetRequest,
) error {
	if req.Website != "" {
		return ErrHoneypot
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if err := s.CheckResetToken(ctx, token); err != nil {
		return err
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.repo.ConsumeResetToken(ctx, core.HashToken(token), passwordHash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.logger.Info("password reset", "user_id", userID)
	return nil
}

func (s *Service) logAttempt(ctx context.Context, entry LoginLog) {
	if err := s.repo.LogLogin(ctx, entry); err != nil {
		s.logger.Warn("failed to record login attempt",
			"user_id", entry.UserID,
			"error", err,
		)
	}
}
