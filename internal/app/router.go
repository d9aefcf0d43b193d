package app

import (
	"io/fs"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/inventario/inventario/internal/auth"
	"github.com/inventario/inventario/internal/cart"
	"github.com/inventario/inventario/internal/catalog"
	"github.com/inventario/inventario/internal/observability"
	"github.com/inventario/inventario/internal/rbac"
	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
	"github.com/inventario/inventario/jobs"
	"github.com/inventario/inventario/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Sessions       *session.Manager
	CSRF           *shared.CSRFManager
	Pages          *view.Pages
	Metrics        *observability.Metrics
	AuthHandler    *auth.Handler
	CatalogHandler *catalog.Handler
	CartHandler    *cart.Handler
	JobHandler     *jobs.Handler
	AccessLog      bool
}

// NewRouter constructs the chi.Router. Every route is classified here:
// public, authenticated-only or restricted to ADMIN.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Sessions: params.Sessions,
		CSRF:     params.CSRF,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}
	if params.AccessLog {
		r.Use(chimw.Logger)
	}

	gate := rbac.Gate{NotFound: params.Pages, Logger: params.Logger}
	authenticated := gate.Require(rbac.AuthenticatedOnly())
	admin := gate.Require(rbac.RoleRestricted(shared.RoleAdmin))

	r.NotFound(params.Pages.NotFound)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/productos", http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/productos", func(r chi.Router) {
		r.Use(authenticated)
		params.CatalogHandler.MountProducts(r, admin)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(admin)
		params.CatalogHandler.MountAdmin(r)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})
	r.Route("/carrito", func(r chi.Router) {
		r.Use(authenticated)
		params.CartHandler.MountRoutes(r)
	})
	r.Route("/api/carrito", func(r chi.Router) {
		r.Use(authenticated)
		params.CartHandler.MountAPI(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

func init() {
	for ext, typ := range map[string]string{
		".css": "text/css; charset=utf-8",
		".js":  "text/javascript; charset=utf-8",
	} {
		if mime.TypeByExtension(ext) == "" {
			_ = mime.AddExtensionType(ext, typ)
		}
	}
}

// staticCacheHandler lets browsers keep embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
