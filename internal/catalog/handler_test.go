package catalog

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
)

func newCatalogRouter(t *testing.T, repo *memRepo, role shared.Role) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewMemoryStore()
	sess := &session.Session{Token: "tok", Username: "admin", Role: role, LastActivity: time.Now()}
	require.NoError(t, store.Rotate(t.Context(), "", *sess))
	mgr := session.NewManager(store, session.Config{IdleTimeout: time.Hour}, logger)

	engine, err := view.NewEngine()
	require.NoError(t, err)
	pages := view.NewPages(engine, shared.NewCSRFManager("test-secret", false), mgr, logger)
	svc := NewService(repo, repo, logger, time.Second)
	h := NewHandler(logger, svc, NewStatsService(repo, nil, logger, time.Second), pages)

	passthrough := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(session.WithContext(req.Context(), sess)))
		})
	})
	r.Route("/productos", func(r chi.Router) { h.MountProducts(r, passthrough) })
	r.Route("/admin", h.MountAdmin)
	return r
}

func do(h http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func productForm(code, name, price, stock string) url.Values {
	return url.Values{"codigo": {code}, "nombre": {name}, "precio": {price}, "stock": {stock}, "activo": {"on"}}
}

func TestListProductsRendersSortedPage(t *testing.T) {
	repo := newMemRepo(item(1, "ZZZ-1", 100, 3), item(2, "AAA-1", 200, 30))
	h := newCatalogRouter(t, repo, shared.RoleAdmin)

	rr := do(h, http.MethodGet, "/productos?sort=codigo&dir=asc", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Less(t, strings.Index(body, "AAA-1"), strings.Index(body, "ZZZ-1"))
	assert.Contains(t, body, `href="/productos/nuevo"`)
	assert.Contains(t, body, "bajo")
}

func TestListProductsHidesAdminActionsForUsers(t *testing.T) {
	h := newCatalogRouter(t, newMemRepo(item(1, "ZZZ-1", 100, 3)), shared.RoleUser)

	rr := do(h, http.MethodGet, "/productos", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "/productos/nuevo")
	assert.Contains(t, rr.Body.String(), "/carrito/agregar/1")
}

func TestCreateProductFlow(t *testing.T) {
	repo := newMemRepo()
	h := newCatalogRouter(t, repo, shared.RoleAdmin)

	rr := do(h, http.MethodPost, "/productos", productForm("MON-024", "Monitor 24 pulgadas", "149.90", "12"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/productos", rr.Header().Get("Location"))

	products, _ := repo.FindAll(t.Context(), SortByID, Asc)
	require.Len(t, products, 1)
	assert.Equal(t, shared.Money(14990), products[0].Price)
	assert.True(t, products[0].Active)
}

func TestCreateProductRerendersWithErrors(t *testing.T) {
	repo := newMemRepo(item(1, "MON-024", 100, 1))
	h := newCatalogRouter(t, repo, shared.RoleAdmin)

	rr := do(h, http.MethodPost, "/productos", productForm("MON-024", "Monitor 24 pulgadas", "1.999", "x"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Introduzca un precio válido con hasta dos decimales")
	assert.Contains(t, body, "Introduzca un número entero")
	assert.Contains(t, body, `value="Monitor 24 pulgadas"`)

	rr = do(h, http.MethodPost, "/productos", productForm("MON-024", "Monitor 24 pulgadas", "10", "1"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ya existe un producto con ese código")

	count, _ := repo.Count(t.Context())
	assert.Equal(t, 1, count)
}

func TestEditAndDeleteUnknownProductRedirect(t *testing.T) {
	h := newCatalogRouter(t, newMemRepo(), shared.RoleAdmin)

	rr := do(h, http.MethodGet, "/productos/42/editar", nil)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/productos", rr.Header().Get("Location"))

	rr = do(h, http.MethodPost, "/productos/42/eliminar", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = do(h, http.MethodGet, "/productos/abc/editar", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUpdateProductFlow(t *testing.T) {
	repo := newMemRepo(item(1, "MON-024", 100, 1))
	h := newCatalogRouter(t, repo, shared.RoleAdmin)

	rr := do(h, http.MethodGet, "/productos/1/editar", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="1.00"`)

	rr = do(h, http.MethodPost, "/productos/1", productForm("MON-024", "Monitor actualizado", "2.50", "7"))
	require.Equal(t, http.StatusSeeOther, rr.Code)
	p, _ := repo.FindByID(t.Context(), 1)
	assert.Equal(t, "Monitor actualizado", p.Name)
	assert.Equal(t, shared.Money(250), p.Price)
}

func TestAdminPanelAndStats(t *testing.T) {
	h := newCatalogRouter(t, statsFixture(), shared.RoleAdmin)

	rr := do(h, http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<strong>6</strong> productos")

	rr = do(h, http.MethodGet, "/admin/estadisticas", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Producto B")
}

func TestCategoryFlow(t *testing.T) {
	repo := newMemRepo()
	h := newCatalogRouter(t, repo, shared.RoleAdmin)

	rr := do(h, http.MethodPost, "/admin/categorias", url.Values{"nombre": {"Periféricos"}, "descripcion": {"Teclados y ratones"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin/categorias", rr.Header().Get("Location"))

	rr = do(h, http.MethodPost, "/admin/categorias", url.Values{"nombre": {"periféricos"}})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Ya existe una categoría con ese nombre")

	rr = do(h, http.MethodGet, "/admin/categorias", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Teclados y ratones")

	cats, _ := repo.ListCategories(t.Context())
	require.Len(t, cats, 1)
	rr = do(h, http.MethodPost, "/admin/categorias/"+strconv.FormatInt(cats[0].ID, 10)+"/eliminar", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	n, _ := repo.CountCategories(t.Context())
	assert.Zero(t, n)
}
