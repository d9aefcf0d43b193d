package view

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
)

// Flasher stores one-time messages on a session.
type Flasher interface {
	AddFlash(ctx context.Context, sess *session.Session, kind, message string)
	PopFlash(ctx context.Context, sess *session.Session) *shared.FlashMessage
}

// CartCounter reports how many units a session holds in its cart.
type CartCounter interface {
	Count(ctx context.Context, sess *session.Session) (int, error)
}

// Pages bundles what every HTML handler needs to answer a request: the
// template engine, CSRF tokens, flash messages and the nav cart badge.
type Pages struct {
	engine  *Engine
	csrf    *shared.CSRFManager
	flashes Flasher
	cart    CartCounter
	logger  *slog.Logger
}

// NewPages constructs Pages.
func NewPages(engine *Engine, csrf *shared.CSRFManager, flashes Flasher, logger *slog.Logger) *Pages {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pages{engine: engine, csrf: csrf, flashes: flashes, logger: logger}
}

// WithCartCounter enables the cart badge in the navigation bar.
func (p *Pages) WithCartCounter(counter CartCounter) *Pages {
	p.cart = counter
	return p
}

// Render writes a full page with the given status, consuming the session's
// oldest flash message.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var flash *shared.FlashMessage
	if sess.Bound() && p.flashes != nil {
		flash = p.flashes.PopFlash(ctx, sess)
	}
	p.render(w, r, name, title, data, status, flash)
}

// RenderWithFlash renders a page showing msg directly instead of a queued flash.
func (p *Pages) RenderWithFlash(w http.ResponseWriter, r *http.Request, name, title string, data any, status int, msg *shared.FlashMessage) {
	p.render(w, r, name, title, data, status, msg)
}

func (p *Pages) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int, flash *shared.FlashMessage) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	viewData := TemplateData{
		Title:       title,
		CSRFToken:   p.csrf.EnsureToken(w, r),
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        sess,
		Data:        data,
	}
	if sess.Bound() && p.cart != nil {
		if n, err := p.cart.Count(ctx, sess); err == nil {
			viewData.CartCount = n
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.engine.Render(w, name, viewData); err != nil {
		p.logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}

// Redirect queues a flash message and answers 303 See Other.
func (p *Pages) Redirect(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if message != "" && p.flashes != nil {
		p.flashes.AddFlash(r.Context(), session.FromContext(r.Context()), kind, message)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// NotFound renders the not-found page. Forbidden resources use it too so
// their existence is not revealed.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, "pages/not_found.html", "Página no encontrada", nil, http.StatusNotFound)
}

// Error renders a generic failure page with a user-safe message.
func (p *Pages) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, shared.ErrTransient) {
		status = http.StatusServiceUnavailable
	}
	p.logger.Error("request failed", slog.Any("error", err), slog.String("path", r.URL.Path))
	p.Render(w, r, "pages/error.html", "Error", map[string]any{"Message": shared.UserSafeMessage(err)}, status)
}
