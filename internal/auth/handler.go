package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
)

// DefaultLanding is where users go after logging in without a usable next.
const DefaultLanding = "/productos"

// AttemptRecorder counts verification outcomes.
type AttemptRecorder interface {
	ObserveAuthAttempt(outcome string)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	pages     *view.Pages
	sessions  *session.Manager
	attempts  AttemptRecorder
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, sessions *session.Manager, attempts AttemptRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		pages:     pages,
		sessions:  sessions,
		attempts:  attempts,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Next     string
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).Bound() {
		http.Redirect(w, r, DefaultLanding, http.StatusSeeOther)
		return
	}
	data := loginPageData{Form: loginForm{Next: r.URL.Query().Get("next")}}
	if _, ok := r.URL.Query()["logout"]; ok {
		msg := &shared.FlashMessage{Kind: "success", Message: "Ha cerrado sesión correctamente"}
		h.pages.RenderWithFlash(w, r, "pages/login.html", "Iniciar sesión", data, http.StatusOK, msg)
		return
	}
	h.pages.Render(w, r, "pages/login.html", "Iniciar sesión", data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Next:     r.PostFormValue("next"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = "Este campo es obligatorio"
		}
		h.renderFailure(w, r, form, errs)
		return
	}

	var result Result
	err := shared.RetryTransient(r.Context(), func(ctx context.Context) error {
		var err error
		result, err = h.service.Verify(ctx, form.Username, form.Password)
		return err
	})
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	if h.attempts != nil {
		h.attempts.ObserveAuthAttempt(result.Outcome.String())
	}
	if !result.Authenticated() {
		h.logger.Info("login rejected", slog.String("username", form.Username), slog.String("outcome", result.Outcome.String()))
		errs["general"] = shared.UserSafeMessage(result.Err())
		h.renderFailure(w, r, form, errs)
		return
	}

	sess, err := h.sessions.Login(r.Context(), h.sessions.ReadToken(r), result.Account.Username, result.Role)
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.sessions.WriteCookie(w, sess)
	name := result.Account.FullName
	if name == "" {
		name = result.Account.Username
	}
	h.sessions.AddFlash(r.Context(), sess, "success", "Bienvenido, "+name)
	h.logger.Info("login", slog.String("username", sess.Username), slog.String("role", sess.Role.String()))
	http.Redirect(w, r, SafeNext(form.Next), http.StatusSeeOther)
}

func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, form loginForm, errs map[string]string) {
	form.Password = ""
	h.pages.Render(w, r, "pages/login.html", "Iniciar sesión", loginPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.sessions.ReadToken(r)
	err := shared.RetryTransient(r.Context(), func(ctx context.Context) error {
		return h.sessions.Logout(ctx, token)
	})
	if err != nil {
		// the token is still live; keep the cookie so the user can retry
		h.pages.Error(w, r, fmt.Errorf("auth: logout: %w", err))
		return
	}
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/auth/login?logout=1", http.StatusSeeOther)
}

// SafeNext returns next when it is a same-site path, DefaultLanding otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DefaultLanding
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(u.Path, "/auth/") {
		return DefaultLanding
	}
	return u.RequestURI()
}
