// AngelaMos | 2026
// service_test.go

package routing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/carterperez-dev/whome/internal/core"
)

const (
	aliceID = "a11ce000-0000-4000-8000-000000000001"
	bobID   = "b0b00000-0000-4000-8000-000000000002"
)

type memoryRepository struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	setCalls int
	lookErr  error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{entries: make(map[string]*Entry)}
}

func (m *memoryRepository) GetByUser(_ context.Context, userID string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *memoryRepository) FindUserByDomain(_ context.Context, domain string) (string, error) {
	return m.find(func(e *Entry) bool {
		return e.CustomDomain.Valid && e.CustomDomain.String == domain
	})
}

func (m *memoryRepository) FindUserByVanity(_ context.Context, vanity string) (string, error) {
	return m.find(func(e *Entry) bool {
		return e.VanityPath.Valid && e.VanityPath.String == vanity
	})
}

func (m *memoryRepository) find(match func(*Entry) bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lookErr != nil {
		return "", m.lookErr
	}
	for id, e := range m.entries {
		if match(e) {
			return id, nil
		}
	}
	return "", core.ErrNotFound
}

func (m *memoryRepository) Set(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCalls++
	for id, e := range m.entries {
		if id == entry.UserID {
			continue
		}
		if entry.VanityPath.Valid && e.VanityPath == entry.VanityPath {
			return core.ConflictError(FieldVanityPath, takenMessage(FieldVanityPath))
		}
		if entry.CustomDomain.Valid && e.CustomDomain == entry.CustomDomain {
			return core.ConflictError(FieldCustomDomain, takenMessage(FieldCustomDomain))
		}
	}

	copied := *entry
	m.entries[entry.UserID] = &copied
	return nil
}

type recordingRenderer struct {
	userID string
}

func (r *recordingRenderer) ServePublic(w http.ResponseWriter, _ *http.Request, userID string) {
	r.userID = userID
	w.WriteHeader(http.StatusOK)
}

func newTestService() (*Service, *memoryRepository) {
	repo := newMemoryRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, []string{"whome.test", "www.whome.test:443"}, logger), repo
}

func conflictField(t *testing.T, err error) string {
	t.Helper()

	var appErr *core.AppError
	if !errors.As(err, &appErr) || !errors.Is(err, core.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	return appErr.Field
}

func TestSetRoutesVanityConflictLeavesHolderUnchanged(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if _, err := svc.SetRoutes(ctx, aliceID, SetRoutesRequest{VanityPath: "al"}); err != nil {
		t.Fatalf("alice SetRoutes: %v", err)
	}
	if _, err := svc.SetRoutes(ctx, bobID, SetRoutesRequest{CustomDomain: "bob.dev"}); err != nil {
		t.Fatalf("bob SetRoutes: %v", err)
	}

	_, err := svc.SetRoutes(ctx, bobID, SetRoutesRequest{VanityPath: "AL", CustomDomain: "bob.dev"})
	if field := conflictField(t, err); field != FieldVanityPath {
		t.Fatalf("conflict field = %q, want %q", field, FieldVanityPath)
	}

	alice, _ := repo.GetByUser(ctx, aliceID)
	if alice.VanityPath.String != "al" {
		t.Fatalf("alice vanity = %q, want al", alice.VanityPath.String)
	}
	bob, _ := repo.GetByUser(ctx, bobID)
	if bob.VanityPath.Valid || bob.CustomDomain.String != "bob.dev" {
		t.Fatalf("bob entry changed: %+v", bob)
	}
}

func TestSetRoutesDomainConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.SetRoutes(ctx, aliceID, SetRoutesRequest{CustomDomain: "alice.dev"}); err != nil {
		t.Fatalf("SetRoutes: %v", err)
	}

	_, err := svc.SetRoutes(ctx, bobID, SetRoutesRequest{CustomDomain: "Alice.Dev:443"})
	if field := conflictField(t, err); field != FieldCustomDomain {
		t.Fatalf("conflict field = %q, want %q", field, FieldCustomDomain)
	}
}

func TestSetRoutesOwnValueIsNotAConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	req := SetRoutesRequest{VanityPath: "al", CustomDomain: "alice.dev"}
	if _, err := svc.SetRoutes(ctx, aliceID, req); err != nil {
		t.Fatalf("first SetRoutes: %v", err)
	}
	if _, err := svc.SetRoutes(ctx, aliceID, req); err != nil {
		t.Fatalf("resubmitting own routes: %v", err)
	}
}

func TestSetRoutesEmptyClears(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	if _, err := svc.SetRoutes(ctx, aliceID, SetRoutesRequest{VanityPath: "al", CustomDomain: "alice.dev"}); err != nil {
		t.Fatalf("SetRoutes: %v", err)
	}
	if _, err := svc.SetRoutes(ctx, aliceID, SetRoutesRequest{CustomDomain: "alice.dev"}); err != nil {
		t.Fatalf("SetRoutes: %v", err)
	}

	e, _ := repo.GetByUser(ctx, aliceID)
	if e.VanityPath.Valid {
		t.Fatalf("vanity = %q, want cleared", e.VanityPath.String)
	}
	if e.CustomDomain.String != "alice.dev" {
		t.Fatalf("domain = %q, want kept", e.CustomDomain.String)
	}
}

func TestSetRoutesValidationTouchesNoStorage(t *testing.T) {
	tests := []struct {
		name  string
		req   SetRoutesRequest
		field string
	}{
		{"underscore", SetRoutesRequest{VanityPath: "al_ice"}, FieldVanityPath},
		{"slash", SetRoutesRequest{VanityPath: "al/ice"}, FieldVanityPath},
		{"unicode", SetRoutesRequest{VanityPath: "älice"}, FieldVanityPath},
		{"reserved dashboard", SetRoutesRequest{VanityPath: "dashboard"}, FieldVanityPath},
		{"reserved u", SetRoutesRequest{VanityPath: "U"}, FieldVanityPath},
		{"reserved l", SetRoutesRequest{VanityPath: "l"}, FieldVanityPath},
		{"bad domain", SetRoutesRequest{CustomDomain: "not a domain"}, FieldCustomDomain},
		{"platform host", SetRoutesRequest{CustomDomain: "WHOME.test"}, FieldCustomDomain},
		{"platform alias", SetRoutesRequest{CustomDomain: "www.whome.test."}, FieldCustomDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()

			_, err := svc.SetRoutes(context.Background(), aliceID, tt.req)

			var appErr *core.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("err = %v, want validation error", err)
			}
			if appErr.Field != tt.field {
				t.Fatalf("field = %q, want %q", appErr.Field, tt.field)
			}
			if repo.setCalls != 0 {
				t.Fatalf("storage touched %d times", repo.setCalls)
			}
		})
	}
}

func TestReservedSetCoversApplicationPrefixes(t *testing.T) {
	for _, seg := range []string{"auth", "dashboard", "u", "static", "l"} {
		if !IsReserved(seg) {
			t.Errorf("%q should be reserved", seg)
		}
	}
	if IsReserved("al") {
		t.Error(`"al" should not be reserved`)
	}
}

func TestResolve(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	repo.entries[aliceID] = &Entry{UserID: aliceID, VanityPath: nullable("al"), CustomDomain: nullable("alice.dev")}
	repo.entries[bobID] = &Entry{UserID: bobID, VanityPath: nullable("bob")}

	tests := []struct {
		name    string
		host    string
		path    string
		outcome Outcome
		userID  string
	}{
		{"vanity", "whome.test", "/al", PublicProfile, aliceID},
		{"vanity trailing slash", "whome.test", "/BOB/", PublicProfile, bobID},
		{"vanity multi segment", "whome.test", "/al/extra", Application, ""},
		{"unknown vanity", "whome.test", "/nobody", Application, ""},
		{"root", "whome.test", "/", Application, ""},
		{"reserved", "whome.test", "/dashboard", Application, ""},
		{"reserved auth", "whome.test", "/auth/login", Application, ""},
		{"custom domain root", "alice.dev", "/", PublicProfile, aliceID},
		{"custom domain any path", "ALICE.dev:8443", "/anything/deep", PublicProfile, aliceID},
		{"custom domain reserved", "alice.dev", "/dashboard", Application, ""},
		{"custom domain static", "alice.dev", "/static/app.css", Application, ""},
		{"custom domain click", "alice.dev", "/l/some-id", Application, ""},
		{"domain beats vanity", "alice.dev", "/bob", PublicProfile, aliceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := svc.Resolve(ctx, tt.host, tt.path)
			if d.Outcome != tt.outcome || d.UserID != tt.userID {
				t.Fatalf("Resolve(%q, %q) = %+v, want outcome %d user %q",
					tt.host, tt.path, d, tt.outcome, tt.userID)
			}
		})
	}
}

func TestResolvePlatformHostIgnoresDomainClaim(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	repo.entries[aliceID] = &Entry{UserID: aliceID, VanityPath: nullable("al")}
	repo.entries[bobID] = &Entry{UserID: bobID, CustomDomain: nullable("whome.test")}

	if d := svc.Resolve(ctx, "whome.test", "/al"); d.Outcome != PublicProfile || d.UserID != aliceID {
		t.Fatalf("vanity on platform host = %+v, want alice", d)
	}
	if d := svc.Resolve(ctx, "WHOME.test:8080", "/"); d.Outcome != Application {
		t.Fatalf("root on platform host = %+v, want Application", d)
	}
}

func TestResolveFallsThroughOnLookupError(t *testing.T) {
	svc, repo := newTestService()
	repo.lookErr = errors.New("connection refused")

	d := svc.Resolve(context.Background(), "alice.dev", "/al")
	if d.Outcome != Application {
		t.Fatalf("outcome = %d, want Application", d.Outcome)
	}
}

func TestMiddleware(t *testing.T) {
	svc, repo := newTestService()
	repo.entries[aliceID] = &Entry{UserID: aliceID, VanityPath: nullable("al")}

	renderer := &recordingRenderer{}
	var reachedApp bool
	app := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reachedApp = true
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware(svc, renderer)(app)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/al", nil))
	if renderer.userID != aliceID || reachedApp {
		t.Fatalf("GET /al: renderer=%q app=%v", renderer.userID, reachedApp)
	}

	renderer.userID = ""
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/al", nil))
	if renderer.userID != "" || !reachedApp {
		t.Fatal("POST must bypass profile resolution")
	}

	reachedApp = false
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if !reachedApp || rr.Code != http.StatusTeapot {
		t.Fatal("reserved path did not reach the application")
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := map[string]string{
		"Alice.Dev":      "alice.dev",
		"alice.dev:8080": "alice.dev",
		"alice.dev.":     "alice.dev",
		"[::1]:8080":     "[::1]",
		"":               "",
	}
	for in, want := range tests {
		if got := NormalizeHost(in); got != want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
}
