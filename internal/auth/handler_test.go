package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
)

type recordedAttempts struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordedAttempts) ObserveAuthAttempt(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type authFixture struct {
	router   http.Handler
	store    *session.MemoryStore
	sessions *session.Manager
	attempts *recordedAttempts
}

func newAuthFixture(t *testing.T) authFixture {
	return newAuthFixtureWith(t, nil)
}

// newAuthFixtureWith lets a test wrap the session store, e.g. to inject faults.
func newAuthFixtureWith(t *testing.T, wrap func(*session.MemoryStore) session.Store) authFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemoryRepo()
	repo.add(t, "admin", "admin123", "ADMIN", true)
	repo.add(t, "ghost", "ghost123", "USER", false)

	store := session.NewMemoryStore()
	var backing session.Store = store
	if wrap != nil {
		backing = wrap(store)
	}
	sessions := session.NewManager(backing, session.Config{IdleTimeout: time.Hour}, logger)
	engine, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewPages(engine, shared.NewCSRFManager("test-secret", false), sessions, logger)
	attempts := &recordedAttempts{}
	h := NewHandler(logger, NewService(repo, logger, time.Second), pages, sessions, attempts)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess := sessions.Resolve(req.Context(), sessions.ReadToken(req))
			next.ServeHTTP(w, req.WithContext(session.WithContext(req.Context(), sess)))
		})
	})
	r.Route("/auth", h.MountRoutes)
	return authFixture{router: r, store: store, sessions: sessions, attempts: attempts}
}

func (f authFixture) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f authFixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestLoginSuccessRotatesTokenAndRedirects(t *testing.T) {
	f := newAuthFixture(t)
	planted := &http.Cookie{Name: f.sessions.CookieName(), Value: "attacker-chosen"}

	rr := f.post("/auth/login", url.Values{"username": {"admin"}, "password": {"admin123"}, "next": {"/carrito?x=1"}}, planted)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/carrito?x=1", rr.Header().Get("Location"))

	cookie := sessionCookie(t, rr, f.sessions.CookieName())
	assert.NotEqual(t, "attacker-chosen", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, f.store.Len())

	sess := f.sessions.Resolve(t.Context(), cookie.Value)
	require.True(t, sess.Bound())
	assert.Equal(t, shared.RoleAdmin, sess.Role)
	assert.Equal(t, []string{"authenticated"}, f.attempts.outcomes)

	rr = f.get("/auth/login", cookie)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, DefaultLanding, rr.Header().Get("Location"))
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	f := newAuthFixture(t)

	cases := []url.Values{
		{"username": {"admin"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"admin123"}},
		{"username": {"ghost"}, "password": {"ghost123"}},
	}
	for _, form := range cases {
		rr := f.post("/auth/login", form)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Usuario o contraseña incorrectos")
		for _, c := range rr.Result().Cookies() {
			assert.NotEqual(t, f.sessions.CookieName(), c.Name)
		}
	}
	assert.Zero(t, f.store.Len())
	assert.Equal(t, []string{"invalid_credentials", "account_not_found", "account_inactive"}, f.attempts.outcomes)
}

func TestLoginRequiresBothFields(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.post("/auth/login", url.Values{"username": {"admin"}})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Este campo es obligatorio")
	assert.Empty(t, f.attempts.outcomes)
}

func TestLoginIsRateLimited(t *testing.T) {
	f := newAuthFixture(t)
	form := url.Values{"username": {"admin"}, "password": {"wrong"}}

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusBadRequest, f.post("/auth/login", form).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, f.post("/auth/login", form).Code)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	rr := f.post("/auth/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookie := sessionCookie(t, rr, f.sessions.CookieName())

	rr = f.post("/auth/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login?logout=1", rr.Header().Get("Location"))
	assert.Less(t, sessionCookie(t, rr, f.sessions.CookieName()).MaxAge, 0)
	assert.Zero(t, f.store.Len())
	assert.False(t, f.sessions.Resolve(t.Context(), cookie.Value).Bound())

	rr = f.get("/auth/login?logout=1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ha cerrado sesión correctamente")
}

// failingDeletes makes the next n Delete calls fail with a transient error.
type failingDeletes struct {
	*session.MemoryStore
	remaining atomic.Int32
}

func (s *failingDeletes) Delete(ctx context.Context, token string) error {
	if s.remaining.Add(-1) >= 0 {
		return shared.ErrTransient
	}
	return s.MemoryStore.Delete(ctx, token)
}

func TestLogoutRetriesTransientStoreFailure(t *testing.T) {
	var flaky *failingDeletes
	f := newAuthFixtureWith(t, func(m *session.MemoryStore) session.Store {
		flaky = &failingDeletes{MemoryStore: m}
		return flaky
	})
	rr := f.post("/auth/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookie := sessionCookie(t, rr, f.sessions.CookieName())

	flaky.remaining.Store(1)
	rr = f.post("/auth/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login?logout=1", rr.Header().Get("Location"))
	assert.False(t, f.sessions.Resolve(t.Context(), cookie.Value).Bound())
	assert.Zero(t, f.store.Len())
}

func TestLogoutFailureIsNotReportedAsSuccess(t *testing.T) {
	var flaky *failingDeletes
	f := newAuthFixtureWith(t, func(m *session.MemoryStore) session.Store {
		flaky = &failingDeletes{MemoryStore: m}
		return flaky
	})
	rr := f.post("/auth/login", url.Values{"username": {"admin"}, "password": {"admin123"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	cookie := sessionCookie(t, rr, f.sessions.CookieName())

	flaky.remaining.Store(2)
	rr = f.post("/auth/logout", url.Values{}, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
	for _, c := range rr.Result().Cookies() {
		assert.NotEqual(t, f.sessions.CookieName(), c.Name)
	}
	assert.NotContains(t, rr.Body.String(), "Ha cerrado sesión correctamente")

	// the session is still live, so a second attempt revokes it
	rr = f.post("/auth/logout", url.Values{}, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.False(t, f.sessions.Resolve(t.Context(), cookie.Value).Bound())
}

func TestSafeNext(t *testing.T) {
	cases := map[string]string{
		"":                       DefaultLanding,
		"/carrito":               "/carrito",
		"/productos?sort=precio": "/productos?sort=precio",
		"https://evil.example":   DefaultLanding,
		"//evil.example/x":       DefaultLanding,
		"/\\evil.example":        DefaultLanding,
		"javascript:alert(1)":    DefaultLanding,
		"/auth/login":            DefaultLanding,
		"productos":              DefaultLanding,
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeNext(in), "next=%q", in)
	}
}
