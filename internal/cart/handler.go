package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inventario/inventario/internal/platform/httpx"
	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
)

// OperationRecorder counts cart mutations.
type OperationRecorder interface {
	ObserveCartOperation(op string, err error)
}

// Handler serves the cart pages and JSON API.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pages   *view.Pages
	ops     OperationRecorder
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, pages *view.Pages, ops OperationRecorder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pages: pages, ops: ops}
}

// MountRoutes registers the HTML routes under /carrito.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Post("/agregar/{id}", h.add)
	r.Post("/eliminar/{id}", h.remove)
}

// MountAPI registers the JSON routes under /api/carrito.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/", h.apiShow)
	r.Post("/items", h.apiAdd)
	r.Delete("/items/{id}", h.apiRemove)
}

type cartPageData struct {
	View View
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	cartView, err := h.service.List(r.Context(), sess)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/cart.html", "Carrito de compras", cartPageData{View: cartView}, http.StatusOK)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	qty, err := parseQuantity(r.PostFormValue("cantidad"))
	if err != nil {
		h.pages.Redirect(w, r, "/productos", "error", shared.UserSafeMessage(err))
		return
	}
	sess := session.FromContext(r.Context())
	_, err = h.service.Add(r.Context(), sess, id, qty)
	h.record("add", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.pages.Redirect(w, r, "/carrito", "success", "Producto añadido al carrito")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	sess := session.FromContext(r.Context())
	err := h.service.Remove(r.Context(), sess, id)
	h.record("remove", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.pages.Redirect(w, r, "/carrito", "success", "Producto eliminado del carrito")
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrUnauthorized) {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	h.pages.Error(w, r, err)
}

func (h *Handler) record(op string, err error) {
	if h.ops != nil {
		h.ops.ObserveCartOperation(op, err)
	}
}

type apiLine struct {
	ItemID    int64  `json:"item_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type apiCart struct {
	Lines []apiLine `json:"lines"`
	Units int       `json:"units"`
	Total string    `json:"total"`
}

type apiAddRequest struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) apiShow(w http.ResponseWriter, r *http.Request) {
	cartView, err := h.service.List(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAPI(cartView))
}

func (h *Handler) apiAdd(w http.ResponseWriter, r *http.Request) {
	var req apiAddRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	qty, err := h.service.Add(r.Context(), session.FromContext(r.Context()), req.ItemID, req.Quantity)
	h.record("add", err)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"item_id": req.ItemID, "quantity": qty})
}

func (h *Handler) apiRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}
	err := h.service.Remove(r.Context(), session.FromContext(r.Context()), id)
	h.record("remove", err)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAPI(v View) apiCart {
	out := apiCart{Lines: make([]apiLine, 0, len(v.Lines)), Units: v.Units(), Total: v.Total.String()}
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, apiLine{
			ItemID:    l.Item.ID,
			Code:      l.Item.Code,
			Name:      l.Item.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.Price.String(),
			LineTotal: l.LineTotal.String(),
		})
	}
	return out
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// parseQuantity reads the cantidad field; blank means one unit.
func parseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	qty, err := strconv.Atoi(raw)
	if err != nil || qty < 1 || qty > shared.MaxCartQuantity {
		return 0, shared.ErrInvalidQuantity
	}
	return qty, nil
}
