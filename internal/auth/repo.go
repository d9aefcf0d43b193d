package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inventario/inventario/internal/platform/db"
	"github.com/inventario/inventario/internal/shared"
)

// Repository defines the credential store contract.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, account Account) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches an account by exact, case-sensitive username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	const query = `SELECT id, username, email, password_hash, COALESCE(nombre_completo, ''), activo, rol
FROM usuarios WHERE username = $1`
	var a Account
	err := r.pool.QueryRow(ctx, query, username).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FullName, &a.Active, &a.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ExistsByUsername reports whether the username is taken.
func (r *PGRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM usuarios WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// ExistsByEmail reports whether the email is taken.
func (r *PGRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM usuarios WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// Create inserts an account and returns its identifier.
func (r *PGRepository) Create(ctx context.Context, a Account) (int64, error) {
	const query = `INSERT INTO usuarios (username, email, password_hash, nombre_completo, activo, rol)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	var id int64
	err := r.pool.QueryRow(ctx, query, a.Username, a.Email, a.PasswordHash, a.FullName, a.Active, a.Role).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("auth: create %s: %w", a.Username, shared.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

var _ Repository = (*PGRepository)(nil)
