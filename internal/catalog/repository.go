package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventario/inventario/internal/platform/db"
	"github.com/inventario/inventario/internal/shared"
)

// ProductRepository is the product half of the catalog store.
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (Product, error)
	FindAll(ctx context.Context, key SortKey, dir Direction) ([]Product, error)
	Top(ctx context.Context, key SortKey, dir Direction, limit int) ([]Product, error)
	CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository is the category half of the catalog store.
type CategoryRepository interface {
	FindCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	CountCategories(ctx context.Context) (int, error)
	CreateCategory(ctx context.Context, c Category) (Category, error)
	UpdateCategory(ctx context.Context, c Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// PGRepository implements both repositories on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const productColumns = `id, codigo, nombre, COALESCE(categoria, ''), precio_cents, stock, activo, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var cents int64
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Category, &cents, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	p.Price = shared.Money(cents)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func orderClause(key SortKey, dir Direction) string {
	direction := "ASC"
	if dir == Desc {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", key.column(), direction)
}

// FindByID fetches one product.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM productos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

// FindAll lists every product in the requested order.
func (r *PGRepository) FindAll(ctx context.Context, key SortKey, dir Direction) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM productos`+orderClause(key, dir))
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// Top returns the first limit products in the requested order.
func (r *PGRepository) Top(ctx context.Context, key SortKey, dir Direction, limit int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM productos`+orderClause(key, dir)+` LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// CodeTaken reports whether another product already uses code.
func (r *PGRepository) CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM productos WHERE codigo = $1 AND id <> $2)`, code, excludeID).Scan(&taken)
	return taken, err
}

// Count returns the number of products.
func (r *PGRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM productos`).Scan(&n)
	return n, err
}

// Create inserts a product.
func (r *PGRepository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO productos (codigo, nombre, categoria, precio_cents, stock, activo, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $7) RETURNING id`,
		p.Code, p.Name, p.Category, int64(p.Price), p.Stock, p.Active, now).Scan(&p.ID)
	if err != nil {
		return Product{}, mapWriteErr(err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return p, nil
}

// Update overwrites a product.
func (r *PGRepository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE productos SET codigo = $1, nombre = $2, categoria = NULLIF($3, ''), precio_cents = $4, stock = $5, activo = $6, updated_at = $7 WHERE id = $8`,
		p.Code, p.Name, p.Category, int64(p.Price), p.Stock, p.Active, time.Now().UTC(), p.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM productos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindCategory fetches one category.
func (r *PGRepository) FindCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, nombre, COALESCE(descripcion, '') FROM categorias WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.ErrNotFound
	}
	return c, err
}

// ListCategories lists categories by name.
func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, nombre, COALESCE(descripcion, '') FROM categorias ORDER BY nombre`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryNameTaken reports whether another category already uses name.
func (r *PGRepository) CategoryNameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categorias WHERE lower(nombre) = lower($1) AND id <> $2)`, strings.TrimSpace(name), excludeID).Scan(&taken)
	return taken, err
}

// CountCategories returns the number of categories.
func (r *PGRepository) CountCategories(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categorias`).Scan(&n)
	return n, err
}

// CreateCategory inserts a category.
func (r *PGRepository) CreateCategory(ctx context.Context, c Category) (Category, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO categorias (nombre, descripcion) VALUES ($1, NULLIF($2, '')) RETURNING id`, c.Name, c.Description).Scan(&c.ID)
	if err != nil {
		return Category{}, mapWriteErr(err)
	}
	return c, nil
}

// UpdateCategory overwrites a category.
func (r *PGRepository) UpdateCategory(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categorias SET nombre = $1, descripcion = NULLIF($2, '') WHERE id = $3`, c.Name, c.Description, c.ID)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category.
func (r *PGRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categorias WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapWriteErr(err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("catalog: %w", shared.ErrDuplicate)
	}
	return err
}

var (
	_ ProductRepository  = (*PGRepository)(nil)
	_ CategoryRepository = (*PGRepository)(nil)
)
