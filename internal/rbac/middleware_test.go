package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
)

type stubNotFound struct{ calls int }

func (s *stubNotFound) NotFound(w http.ResponseWriter, r *http.Request) {
	s.calls++
	http.Error(w, "no existe", http.StatusNotFound)
}

func serveGated(t *testing.T, gate Gate, c Classification, sess *session.Session, target string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	reached := false
	h := gate.Require(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = req.WithContext(session.WithContext(req.Context(), sess))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, reached
}

func TestGateRedirectsAnonymousToLoginWithNext(t *testing.T) {
	rr, reached := serveGated(t, Gate{}, AuthenticatedOnly(), session.Anonymous(), "/carrito?x=1")

	assert.False(t, reached)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login?next=%2Fcarrito%3Fx%3D1", rr.Header().Get("Location"))
}

func TestGateRendersForbiddenAsNotFound(t *testing.T) {
	notFound := &stubNotFound{}
	user := &session.Session{Token: "t", Username: "user", Role: shared.RoleUser}

	rr, reached := serveGated(t, Gate{NotFound: notFound}, RoleRestricted(shared.RoleAdmin), user, "/admin")

	assert.False(t, reached)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 1, notFound.calls)
}

func TestGatePermits(t *testing.T) {
	admin := &session.Session{Token: "t", Username: "admin", Role: shared.RoleAdmin}
	rr, reached := serveGated(t, Gate{}, RoleRestricted(shared.RoleAdmin), admin, "/admin")

	assert.True(t, reached)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestGateStopsCancelledRequests(t *testing.T) {
	reached := false
	h := Gate{}.Require(Public())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/carrito/agregar/1", nil).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, reached)
}
