package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/inventario/inventario/internal/shared"
)

// Invalidator is notified after every catalog write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Summary feeds the admin panel.
type Summary struct {
	Products   int
	Categories int
}

// Service wraps catalog business rules.
type Service struct {
	products    ProductRepository
	categories  CategoryRepository
	validator   *validator.Validate
	timeout     time.Duration
	invalidator Invalidator
	logger      *slog.Logger
}

// NewService constructs a Service. storeTimeout bounds every repository call.
func NewService(products ProductRepository, categories CategoryRepository, logger *slog.Logger, storeTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		products:   products,
		categories: categories,
		validator:  newValidator(),
		timeout:    storeTimeout,
		logger:     logger,
	}
}

// WithInvalidator registers a hook run after successful writes.
func (s *Service) WithInvalidator(inv Invalidator) *Service {
	s.invalidator = inv
	return s
}

func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	return shared.WithStoreTimeout(ctx, s.timeout, fn)
}

func (s *Service) changed(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		s.logger.Warn("invalidate catalog caches", slog.Any("error", err))
	}
}

// FindByID returns the product or shared.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrNotFound
	}
	var p Product
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.products.FindByID(ctx, id)
		return err
	})
	return p, err
}

// List returns every product in the requested order.
func (s *Service) List(ctx context.Context, key SortKey, dir Direction) ([]Product, error) {
	var out []Product
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.products.FindAll(ctx, key, dir)
		return err
	})
	return out, err
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	if err := s.checkProduct(ctx, &in, 0); err != nil {
		return Product{}, err
	}
	var created Product
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.products.Create(ctx, productFrom(in, 0))
		return err
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("product created", slog.Int64("id", created.ID), slog.String("code", created.Code))
	s.changed(ctx)
	return created, nil
}

// UpdateProduct validates and overwrites an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return Product{}, err
	}
	if err := s.checkProduct(ctx, &in, id); err != nil {
		return Product{}, err
	}
	p := productFrom(in, id)
	if err := s.call(ctx, func(ctx context.Context) error { return s.products.Update(ctx, p) }); err != nil {
		return Product{}, err
	}
	s.changed(ctx)
	return p, nil
}

// DeleteProduct removes a product. Carts holding it keep the entry; it is
// skipped when the cart is displayed.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.call(ctx, func(ctx context.Context) error { return s.products.Delete(ctx, id) }); err != nil {
		return err
	}
	s.logger.Info("product deleted", slog.Int64("id", id))
	s.changed(ctx)
	return nil
}

func (s *Service) checkProduct(ctx context.Context, in *ProductInput, id int64) error {
	in.normalize()
	if err := validate(s.validator, in); err != nil {
		return err
	}
	var taken bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		taken, err = s.products.CodeTaken(ctx, in.Code, id)
		return err
	})
	if err != nil {
		return err
	}
	if taken {
		return fieldError("codigo", "Ya existe un producto con ese código")
	}
	return nil
}

func productFrom(in ProductInput, id int64) Product {
	return Product{
		ID:       id,
		Code:     in.Code,
		Name:     in.Name,
		Category: in.Category,
		Price:    in.Price,
		Stock:    in.Stock,
		Active:   in.Active,
	}
}

// Categories lists all categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.categories.ListCategories(ctx)
		return err
	})
	return out, err
}

// FindCategory returns the category or shared.ErrNotFound.
func (s *Service) FindCategory(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, shared.ErrNotFound
	}
	var c Category
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.categories.FindCategory(ctx, id)
		return err
	})
	return c, err
}

// CreateCategory validates and stores a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	if err := s.checkCategory(ctx, &in, 0); err != nil {
		return Category{}, err
	}
	var created Category
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.categories.CreateCategory(ctx, Category{Name: in.Name, Description: in.Description})
		return err
	})
	if err != nil {
		return Category{}, err
	}
	s.changed(ctx)
	return created, nil
}

// UpdateCategory validates and overwrites a category.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	if _, err := s.FindCategory(ctx, id); err != nil {
		return Category{}, err
	}
	if err := s.checkCategory(ctx, &in, id); err != nil {
		return Category{}, err
	}
	c := Category{ID: id, Name: in.Name, Description: in.Description}
	if err := s.call(ctx, func(ctx context.Context) error { return s.categories.UpdateCategory(ctx, c) }); err != nil {
		return Category{}, err
	}
	s.changed(ctx)
	return c, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.call(ctx, func(ctx context.Context) error { return s.categories.DeleteCategory(ctx, id) }); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service) checkCategory(ctx context.Context, in *CategoryInput, id int64) error {
	in.normalize()
	if err := validate(s.validator, in); err != nil {
		return err
	}
	var taken bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		taken, err = s.categories.CategoryNameTaken(ctx, in.Name, id)
		return err
	})
	if err != nil {
		return err
	}
	if taken {
		return fieldError("nombre", "Ya existe una categoría con ese nombre")
	}
	return nil
}

// Summary counts products and categories.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		if out.Products, err = s.products.Count(ctx); err != nil {
			return err
		}
		out.Categories, err = s.categories.CountCategories(ctx)
		return err
	})
	return out, err
}
