// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/whome/internal/core"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type mockUserProvider struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{users: make(map[string]*UserInfo)}
}

func (m *mockUserProvider) GetByUsername(_ context.Context, username string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == normalize(username) {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *mockUserProvider) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == normalize(email) {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *mockUserProvider) Exists(ctx context.Context, username, email string) (bool, error) {
	_, byName := m.GetByUsername(ctx, username)
	_, byEmail := m.GetByEmail(ctx, email)
	return byName == nil || byEmail == nil, nil
}

func (m *mockUserProvider) Create(_ context.Context, username, email, passwordHash string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := &UserInfo{
		ID:           "user-" + normalize(username),
		Username:     normalize(username),
		Email:        normalize(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserProvider) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// memoryRepository consumes tokens with the same predicate as the SQL
// version: unused and unexpired.
type memoryRepository struct {
	mu     sync.Mutex
	tokens map[string]*ResetToken
	logins []LoginLog
	users  *mockUserProvider
}

func (m *memoryRepository) CreateResetToken(_ context.Context, token *ResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *token
	m.tokens[token.TokenHash] = &copied
	return nil
}

func (m *memoryRepository) FindResetToken(_ context.Context, tokenHash string) (*ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *memoryRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (string, error) {
	m.mu.Lock()
	t, ok := m.tokens[tokenHash]
	if !ok || !t.IsValid() {
		m.mu.Unlock()
		return "", core.ErrTokenInvalid
	}
	t.Used = true
	m.mu.Unlock()

	return t.UserID, m.users.UpdatePassword(ctx, t.UserID, passwordHash)
}

func (m *memoryRepository) LogLogin(_ context.Context, entry LoginLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logins = append(m.logins, entry)
	return nil
}

func setupTestAuthService(t *testing.T) (*Service, *memoryRepository, *mockUserProvider) {
	t.Helper()

	users := newMockUserProvider()
	repo := &memoryRepository{tokens: make(map[string]*ResetToken), users: users}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(repo, users, Config{
		ResetTTL:       30 * time.Minute,
		ExposeResetURL: true,
	}, logger)

	return svc, repo, users
}

func registerAlice(t *testing.T, svc *Service) *UserInfo {
	t.Helper()

	u, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "  Alice ",
		Email:           "Alice@X.com",
		Password:        "pw123456",
		ConfirmPassword: "pw123456",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return u
}

func resetToken(t *testing.T, resp *ForgotResponse) string {
	t.Helper()

	token, ok := strings.CutPrefix(resp.ResetURL, "/auth/reset/")
	if !ok || token == "" {
		t.Fatalf("reset url = %q", resp.ResetURL)
	}
	return token
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	svc, _, _ := setupTestAuthService(t)
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "someone",
		Email:           "ALICE@x.com",
		Password:        "pw123456",
		ConfirmPassword: "pw123456",
	})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("err = %v, want ErrAccountExists", err)
	}
}

func TestRegisterRejectsMismatchAndHoneypot(t *testing.T) {
	svc, _, users := setupTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "bob", Email: "bob@x.com", Password: "pw123456", ConfirmPassword: "pw654321",
	})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("mismatch err = %v", err)
	}

	_, err = svc.Register(ctx, RegisterRequest{
		Username: "bot", Email: "bot@x.com", Password: "pw123456", ConfirmPassword: "pw123456",
		Website: "http://spam.example",
	})
	if !errors.Is(err, ErrHoneypot) {
		t.Fatalf("honeypot err = %v", err)
	}

	if len(users.users) != 0 {
		t.Fatalf("users created: %d", len(users.users))
	}
}

func TestLoginRecordsAttempts(t *testing.T) {
	svc, repo, _ := setupTestAuthService(t)
	ctx := context.Background()
	alice := registerAlice(t, svc)

	if _, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong-password"}, "ua", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}

	u, err := svc.Login(ctx, LoginRequest{Username: "ALICE", Password: "pw123456"}, "ua", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != alice.ID {
		t.Fatalf("logged in as %s", u.ID)
	}

	if _, err := svc.Login(ctx, LoginRequest{Username: "nobody", Password: "pw123456"}, "ua", "10.0.0.1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	if len(repo.logins) != 2 {
		t.Fatalf("login logs = %d, want 2", len(repo.logins))
	}
	if repo.logins[0].Success || !repo.logins[1].Success {
		t.Fatalf("login log flags = %+v", repo.logins)
	}
}

func TestResetTokenIsSingleUse(t *testing.T) {
	svc, _, _ := setupTestAuthService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	resp, err := svc.Forgot(ctx, ForgotRequest{Email: "alice@x.com"})
	if err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	token := resetToken(t, resp)

	if err := svc.CheckResetToken(ctx, token); err != nil {
		t.Fatalf("CheckResetToken: %v", err)
	}

	req := ResetRequest{Password: "newpass123", ConfirmPassword: "newpass123"}
	if err := svc.ResetPassword(ctx, token, req); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "newpass123"}, "", ""); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	err = svc.ResetPassword(ctx, token, ResetRequest{Password: "third-pass", ConfirmPassword: "third-pass"})
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("reuse err = %v, want ErrTokenInvalid", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "newpass123"}, "", ""); err != nil {
		t.Fatalf("password changed by reused token: %v", err)
	}
}

func TestResetTokenExpires(t *testing.T) {
	svc, repo, _ := setupTestAuthService(t)
	ctx := context.Background()
	registerAlice(t, svc)

	resp, err := svc.Forgot(ctx, ForgotRequest{Email: "alice@x.com"})
	if err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	token := resetToken(t, resp)

	repo.tokens[core.HashToken(token)].ExpiresAt = time.Now().Add(-time.Minute)

	if err := svc.CheckResetToken(ctx, token); !errors.Is(err, core.ErrTokenExpired) {
		t.Fatalf("check err = %v, want ErrTokenExpired", err)
	}

	err = svc.ResetPassword(ctx, token, ResetRequest{Password: "newpass123", ConfirmPassword: "newpass123"})
	if err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestForgotUnknownEmailLooksTheSame(t *testing.T) {
	svc, repo, _ := setupTestAuthService(t)

	resp, err := svc.Forgot(context.Background(), ForgotRequest{Email: "ghost@x.com"})
	if err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	if resp.Message != forgotMessage || resp.ResetURL != "" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(repo.tokens) != 0 {
		t.Fatal("token issued for unknown email")
	}
}

func TestForgotStoresOnlyTheHash(t *testing.T) {
	svc, repo, _ := setupTestAuthService(t)
	registerAlice(t, svc)

	resp, err := svc.Forgot(context.Background(), ForgotRequest{Email: "alice@x.com"})
	if err != nil {
		t.Fatalf("Forgot: %v", err)
	}
	token := resetToken(t, resp)

	if _, ok := repo.tokens[token]; ok {
		t.Fatal("raw token stored")
	}
	if _, ok := repo.tokens[core.HashToken(token)]; !ok {
		t.Fatal("hashed token missing")
	}
}
