package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inventario/inventario/internal/shared"
	"github.com/inventario/inventario/internal/view"
)

// PerPage is the product list page size.
const PerPage = 20

// Handler serves product, category and admin pages.
type Handler struct {
	logger  *slog.Logger
	service *Service
	stats   *StatsService
	pages   *view.Pages
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, stats *StatsService, pages *view.Pages) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, stats: stats, pages: pages}
}

// MountProducts registers /productos routes. Writes are wrapped in admin.
func (h *Handler) MountProducts(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/", h.listProducts)
	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/nuevo", h.newProduct)
		r.Post("/", h.createProduct)
		r.Get("/{id}/editar", h.editProduct)
		r.Post("/{id}", h.updateProduct)
		r.Post("/{id}/eliminar", h.deleteProduct)
	})
}

// MountAdmin registers /admin routes; the caller guards the whole group.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/", h.panel)
	r.Get("/estadisticas", h.statistics)
	r.Route("/categorias", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Get("/nuevo", h.newCategory)
		r.Post("/", h.createCategory)
		r.Get("/{id}/editar", h.editCategory)
		r.Post("/{id}", h.updateCategory)
		r.Post("/{id}/eliminar", h.deleteCategory)
	})
}

type productListData struct {
	Products   []Product
	Sort       SortKey
	Dir        Direction
	Pagination shared.Pagination
}

type productFormData struct {
	ID         int64
	Input      ProductInput
	Price      string
	Stock      string
	Errors     map[string]string
	Categories []Category
}

type categoryListData struct {
	Categories []Category
}

type categoryFormData struct {
	ID     int64
	Input  CategoryInput
	Errors map[string]string
}

type panelData struct {
	Summary Summary
}

type statsData struct {
	Stats Stats
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, dir := ParseSort(q.Get("sort"), q.Get("dir"))
	products, err := h.service.List(r.Context(), key, dir)
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	page, _ := strconv.Atoi(q.Get("page"))
	pagination := shared.NewPagination(page, PerPage, len(products))
	start := (pagination.Page - 1) * pagination.PerPage
	if start > len(products) {
		start = len(products)
	}
	end := start + pagination.PerPage
	if end > len(products) {
		end = len(products)
	}
	h.pages.Render(w, r, "pages/products_list.html", "Productos", productListData{
		Products:   products[start:end],
		Sort:       key,
		Dir:        dir,
		Pagination: pagination,
	}, http.StatusOK)
}

func (h *Handler) newProduct(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, productFormData{Input: ProductInput{Active: true}}, http.StatusOK)
}

func (h *Handler) editProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	p, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.failRedirect(w, r, "/productos", err, "Producto no encontrado")
		return
	}
	h.renderProductForm(w, r, productFormData{
		ID:    p.ID,
		Input: ProductInput{Code: p.Code, Name: p.Name, Category: p.Category, Price: p.Price, Stock: p.Stock, Active: p.Active},
		Price: p.Price.String(),
		Stock: strconv.Itoa(p.Stock),
	}, http.StatusOK)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	data, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}
	if len(data.Errors) == 0 {
		_, err := h.service.CreateProduct(r.Context(), data.Input)
		if err == nil {
			h.pages.Redirect(w, r, "/productos", "success", "Producto creado exitosamente")
			return
		}
		if !h.collectFieldErrors(w, r, err, data.Errors) {
			return
		}
	}
	h.renderProductForm(w, r, data, http.StatusBadRequest)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	data, ok := h.parseProductForm(w, r)
	if !ok {
		return
	}
	data.ID = id
	if len(data.Errors) == 0 {
		_, err := h.service.UpdateProduct(r.Context(), id, data.Input)
		if err == nil {
			h.pages.Redirect(w, r, "/productos", "success", "Producto actualizado exitosamente")
			return
		}
		if errors.Is(err, shared.ErrNotFound) {
			h.pages.Redirect(w, r, "/productos", "error", "Producto no encontrado")
			return
		}
		if !h.collectFieldErrors(w, r, err, data.Errors) {
			return
		}
	}
	h.renderProductForm(w, r, data, http.StatusBadRequest)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.failRedirect(w, r, "/productos", err, "Producto no encontrado")
		return
	}
	h.pages.Redirect(w, r, "/productos", "success", "Producto eliminado exitosamente")
}

func (h *Handler) parseProductForm(w http.ResponseWriter, r *http.Request) (productFormData, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return productFormData{}, false
	}
	data := productFormData{
		Input: ProductInput{
			Code:     r.PostFormValue("codigo"),
			Name:     r.PostFormValue("nombre"),
			Category: r.PostFormValue("categoria"),
			Active:   r.PostFormValue("activo") != "",
		},
		Price:  strings.TrimSpace(r.PostFormValue("precio")),
		Stock:  strings.TrimSpace(r.PostFormValue("stock")),
		Errors: make(map[string]string),
	}
	price, err := shared.ParseMoney(data.Price)
	if err != nil {
		data.Errors["precio"] = "Introduzca un precio válido con hasta dos decimales"
	}
	data.Input.Price = price
	stock, err := strconv.Atoi(data.Stock)
	if err != nil {
		data.Errors["stock"] = "Introduzca un número entero"
	}
	data.Input.Stock = stock
	return data, true
}

// collectFieldErrors merges validation failures into errs. Other errors are
// answered directly and false is returned.
func (h *Handler) collectFieldErrors(w http.ResponseWriter, r *http.Request, err error, errs map[string]string) bool {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		for k, v := range verr.Fields {
			errs[k] = v
		}
		return true
	case errors.Is(err, shared.ErrDuplicate):
		errs["general"] = shared.UserSafeMessage(err)
		return true
	default:
		h.pages.Error(w, r, err)
		return false
	}
}

func (h *Handler) renderProductForm(w http.ResponseWriter, r *http.Request, data productFormData, status int) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.Warn("load categories for product form", slog.Any("error", err))
	}
	data.Categories = cats
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	title := "Nuevo producto"
	if data.ID != 0 {
		title = "Editar producto"
	}
	h.pages.Render(w, r, "pages/product_form.html", title, data, status)
}

func (h *Handler) panel(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/admin.html", "Panel de Administración", panelData{Summary: summary}, http.StatusOK)
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Load(r.Context())
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/stats.html", "Estadísticas de Productos", statsData{Stats: stats}, http.StatusOK)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.Categories(r.Context())
	if err != nil {
		h.pages.Error(w, r, err)
		return
	}
	h.pages.Render(w, r, "pages/categories_list.html", "Categorías", categoryListData{Categories: cats}, http.StatusOK)
}

func (h *Handler) newCategory(w http.ResponseWriter, r *http.Request) {
	h.renderCategoryForm(w, r, categoryFormData{}, http.StatusOK)
}

func (h *Handler) editCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	c, err := h.service.FindCategory(r.Context(), id)
	if err != nil {
		h.failRedirect(w, r, "/admin/categorias", err, "Categoría no encontrada")
		return
	}
	h.renderCategoryForm(w, r, categoryFormData{ID: c.ID, Input: CategoryInput{Name: c.Name, Description: c.Description}}, http.StatusOK)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	data, ok := parseCategoryForm(w, r)
	if !ok {
		return
	}
	_, err := h.service.CreateCategory(r.Context(), data.Input)
	if err == nil {
		h.pages.Redirect(w, r, "/admin/categorias", "success", "Categoría creada correctamente")
		return
	}
	if h.collectFieldErrors(w, r, err, data.Errors) {
		h.renderCategoryForm(w, r, data, http.StatusBadRequest)
	}
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	data, ok := parseCategoryForm(w, r)
	if !ok {
		return
	}
	data.ID = id
	_, err := h.service.UpdateCategory(r.Context(), id, data.Input)
	if err == nil {
		h.pages.Redirect(w, r, "/admin/categorias", "success", "Categoría actualizada correctamente")
		return
	}
	if errors.Is(err, shared.ErrNotFound) {
		h.pages.Redirect(w, r, "/admin/categorias", "error", "Categoría no encontrada")
		return
	}
	if h.collectFieldErrors(w, r, err, data.Errors) {
		h.renderCategoryForm(w, r, data, http.StatusBadRequest)
	}
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.pages.NotFound(w, r)
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		h.failRedirect(w, r, "/admin/categorias", err, "Categoría no encontrada")
		return
	}
	h.pages.Redirect(w, r, "/admin/categorias", "success", "Categoría eliminada correctamente")
}

func parseCategoryForm(w http.ResponseWriter, r *http.Request) (categoryFormData, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return categoryFormData{}, false
	}
	return categoryFormData{
		Input: CategoryInput{
			Name:        r.PostFormValue("nombre"),
			Description: r.PostFormValue("descripcion"),
		},
		Errors: make(map[string]string),
	}, true
}

func (h *Handler) renderCategoryForm(w http.ResponseWriter, r *http.Request, data categoryFormData, status int) {
	if data.Errors == nil {
		data.Errors = map[string]string{}
	}
	title := "Nueva categoría"
	if data.ID != 0 {
		title = "Editar categoría"
	}
	h.pages.Render(w, r, "pages/category_form.html", title, data, status)
}

// failRedirect sends not-found errors back to a list page and renders the
// error page for everything else.
func (h *Handler) failRedirect(w http.ResponseWriter, r *http.Request, location string, err error, notFound string) {
	if errors.Is(err, shared.ErrNotFound) {
		h.pages.Redirect(w, r, location, "error", notFound)
		return
	}
	h.pages.Error(w, r, err)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
