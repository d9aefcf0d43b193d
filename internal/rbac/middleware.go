package rbac

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/inventario/inventario/internal/session"
)

// LoginPath is the authentication entry point.
const LoginPath = "/auth/login"

// NotFoundRenderer answers requests for resources the caller may not see.
type NotFoundRenderer interface {
	NotFound(w http.ResponseWriter, r *http.Request)
}

// Gate turns Authorize decisions into HTTP responses. It runs before the
// handler so nothing is read or mutated for a request that is turned away.
type Gate struct {
	NotFound NotFoundRenderer
	Logger   *slog.Logger
}

// Require guards next with classification c.
func (g Gate) Require(c Classification) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.Context().Err(); err != nil {
				return
			}
			sess := session.FromContext(r.Context())
			switch Authorize(sess, c) {
			case Permit:
				next.ServeHTTP(w, r)
			case RequireAuthentication:
				target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			default:
				if g.Logger != nil {
					g.Logger.Warn("access denied",
						slog.String("username", sess.Username),
						slog.String("path", r.URL.Path),
						slog.String("classification", c.String()))
				}
				if g.NotFound != nil {
					g.NotFound.NotFound(w, r)
					return
				}
				http.NotFound(w, r)
			}
		})
	}
}
