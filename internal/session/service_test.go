// AngelaMos | 2026
// service_test.go

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/whome/internal/config"
	"github.com/carterperez-dev/whome/internal/core"
	"github.com/carterperez-dev/whome/internal/middleware"
)

const (
	testSecret = "this-is-a-test-secret-with-32-bytes!"
	aliceID    = "a11ce000-0000-4000-8000-000000000001"
	bobID      = "b0b00000-0000-4000-8000-000000000002"
)

type memoryRepository struct {
	mu   sync.Mutex
	recs map[string]*Record
	now  time.Time
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		recs: make(map[string]*Record),
		now:  time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memoryRepository) Touch(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(time.Second)

	existing, ok := m.recs[rec.SessionID]
	if !ok {
		stored := *rec
		stored.CreatedAt = m.now
		stored.LastSeen = m.now
		stored.Active = true
		m.recs[rec.SessionID] = &stored
		*rec = stored
		return nil
	}

	if !existing.Active || existing.UserID != rec.UserID {
		return core.ErrTokenRevoked
	}

	existing.LastSeen = m.now
	existing.UserAgent = rec.UserAgent
	existing.IP = rec.IP
	*rec = *existing
	return nil
}

func (m *memoryRepository) ListActive(_ context.Context, userID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Record
	for _, rec := range m.recs {
		if rec.UserID == userID && rec.Active {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out, nil
}

func (m *memoryRepository) Deactivate(_ context.Context, userID, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.recs[sessionID]
	if !ok || rec.UserID != userID || !rec.Active {
		return false, nil
	}
	rec.Active = false
	return true, nil
}

func (m *memoryRepository) DeactivateAll(_ context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, rec := range m.recs {
		if rec.UserID == userID && rec.Active {
			rec.Active = false
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type failingDestroyStore struct {
	Store
	destroyCalls int
}

func (f *failingDestroyStore) Destroy(context.Context, string) error {
	f.destroyCalls++
	return errors.New("store unavailable")
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func testConfig() config.SessionConfig {
	return config.SessionConfig{
		CookieName: "whome_sid",
		Secret:     testSecret,
		MaxAge:     time.Hour,
		KeyPrefix:  "sess:",
	}
}

func newTestService(t *testing.T, store Store) (*Service, *memoryRepository) {
	t.Helper()

	cfg := testConfig()
	codec, err := NewCodec(cfg.Secret, cfg.MaxAge)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	repo := newMemoryRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, store, codec, cfg, logger), repo
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func login(t *testing.T, svc *Service, userID, ua string) (string, *http.Cookie) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("User-Agent", ua)

	sid, err := svc.Start(rec, req, userID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == "whome_sid" {
			return sid, c
		}
	}
	t.Fatal("session cookie not set")
	return "", nil
}

func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestStartAndVerify(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc, repo := newTestService(t, NewRedisStore(client, "sess:"))

	sid, cookie := login(t, svc, aliceID, "Mozilla/5.0")

	if !cookie.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !mr.Exists("sess:" + sid) {
		t.Fatalf("store key for %s missing", sid)
	}

	claims, err := svc.VerifySession(requestWith(cookie))
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if claims.UserID != aliceID || claims.SessionID != sid {
		t.Fatalf("claims = %+v", claims)
	}

	active, _ := repo.ListActive(context.Background(), aliceID)
	if len(active) != 1 {
		t.Fatalf("active sessions = %d, want 1", len(active))
	}
}

func TestVerifyWithoutCookieIsAnonymous(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc, _ := newTestService(t, NewRedisStore(client, "sess:"))

	_, err := svc.VerifySession(requestWith(nil))
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestVerifyRejectsTamperedCookie(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc, _ := newTestService(t, NewRedisStore(client, "sess:"))

	sid, cookie := login(t, svc, aliceID, "Mozilla/5.0")

	forger, err := NewCodec("another-secret-another-secret-!!", time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	cookie.Value, err = forger.Encode(sid)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	_, err = svc.VerifySession(requestWith(cookie))
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestVerifyAfterStoreExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc, _ := newTestService(t, NewRedisStore(client, "sess:"))

	_, cookie := login(t, svc, aliceID, "Mozilla/5.0")
	mr.FastForward(2 * time.Hour)

	_, err := svc.VerifySession(requestWith(cookie))
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRevokeRemovesFromStoreAndList(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc, _ := newTestService(t, NewRedisStore(client, "sess:"))
	ctx := context.Background()

	laptop, _ := login(t, svc, aliceID, "laptop")
	phone, phoneCookie := login(t, svc, aliceID, "phone")

	revoked, err := svc.Revoke(ctx, aliceID, phone)
	if err != nil || !revoked {
		t.Fatalf("Revoke = %v, %v", revoked, err)
	}
	if mr.Exists("sess:" + phone) {
		t.Error("revoked session still present in store")
	}

	active, err := svc.ListActive(ctx, aliceID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].SessionID != laptop {
		t.Fatalf("active = %+v, want only %s", active, laptop)
	}

	if _, err := svc.VerifySession(requestWith(phoneCookie)); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("revoked cookie verified: %v", err)
	}
}

func TestRevokeSurvivesStoreFailure(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := &failingDestroyStore{Store: NewRedisStore(client, "sess:")}
	svc, _ := newTestService(t, store)
	ctx := context.Background()

	sid, _ := login(t, svc, aliceID, "phone")

	revoked, err := svc.Revoke(ctx, aliceID, sid)
	if err != nil {
		t.Fatalf("Revoke returned store error: %v", err)
	}
	if !revoked {
		t.Fatal("record not revoked")
	}
	if store.destroyCalls != 1 {
		t.Fatalf("destroy calls = %d, want 1", store.destroyCalls)
	}

	active, _ := svc.ListActive(ctx, aliceID)
	if len(active) != 0 {
		t.Fatalf("active = %+v, want none", active)
	}
}

func TestRevokedSessionIsNotResurrected(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := &failingDestroyStore{Store: NewRedisStore(client, "sess:")}
	svc, _ := newTestService(t, store)

	sid, cookie := login(t, svc, aliceID, "phone")
	if _, err := svc.Revoke(context.Background(), aliceID, sid); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	// The store still holds the session because destroy failed.
	_, err := svc.VerifySession(requestWith(cookie))
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}

	active, _ := svc.ListActive(context.Background(), aliceID)
	if len(active) != 0 {
		t.Fatalf("revoked session came back: %+v", active)
	}
}

func TestRevokeForeignSessionIsNoop(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc, _ := newTestService(t, NewRedisStore(client, "sess:"))
	ctx := context.Background()

	aliceSID, _ := login(t, svc, aliceID, "laptop")

	revoked, err := svc.Revoke(ctx, bobID, aliceSID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked {
		t.Fatal("bob revoked alice's session")
	}
	if !mr.Exists("sess:" + aliceSID) {
		t.Fatal("alice's store entry was destroyed")
	}
}

func TestRevokeHandlerSignsOutCurrentSession(t *testing.T) {
	client, _ := setupTestRedis(t)
	svc, _ := newTestService(t, NewRedisStore(client, "sess:"))
	h := NewHandler(svc)

	sid, _ := login(t, svc, aliceID, "laptop")

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sid+"/revoke", nil)
	req = req.WithContext(middleware.WithClaims(req.Context(), &middleware.SessionClaims{
		UserID:    aliceID,
		SessionID: sid,
	}))
	rec := httptest.NewRecorder()

	router := newRouter(h)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "whome_sid" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("current session cookie was not cleared")
	}
}

func TestRevokeAllSignsOutEveryDevice(t *testing.T) {
	client, mr := setupTestRedis(t)
	svc, repo := newTestService(t, NewRedisStore(client, "sess:"))
	ctx := context.Background()

	laptop, laptopCookie := login(t, svc, aliceID, "Mozilla/5.0 (X11)")
	phone, phoneCookie := login(t, svc, aliceID, "Mozilla/5.0 (iPhone)")
	bobSID, bobCookie := login(t, svc, bobID, "curl/8")

	if err := svc.RevokeAll(ctx, aliceID); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}

	for _, sid := range []string{laptop, phone} {
		if mr.Exists("sess:" + sid) {
			t.Fatalf("store key for %s survived", sid)
		}
	}
	for _, c := range []*http.Cookie{laptopCookie, phoneCookie} {
		if _, err := svc.VerifySession(requestWith(c)); !errors.Is(err, core.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	}
	if active, _ := repo.ListActive(ctx, aliceID); len(active) != 0 {
		t.Fatalf("alice still has %d active sessions", len(active))
	}

	if !mr.Exists("sess:" + bobSID) {
		t.Fatal("another user's session was destroyed")
	}
	if _, err := svc.VerifySession(requestWith(bobCookie)); err != nil {
		t.Fatalf("bob VerifySession: %v", err)
	}
}
