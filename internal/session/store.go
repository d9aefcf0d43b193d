package session

import (
	"context"
	"errors"
	"time"

	"github.com/inventario/inventario/internal/shared"
)

// ErrSessionNotFound indicates the token is unknown or already invalidated.
var ErrSessionNotFound = errors.New("session: not found")

// Store persists sessions together with the cart and flash messages scoped to
// them. Deleting a session always deletes its cart.
type Store interface {
	Get(ctx context.Context, token string) (Session, error)
	// Rotate removes oldToken (when non-empty) with everything scoped to it and
	// inserts next in one step.
	Rotate(ctx context.Context, oldToken string, next Session) error
	Touch(ctx context.Context, token string, at time.Time) error
	Delete(ctx context.Context, token string) error
	// Sweep removes sessions whose last activity is before cutoff.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	IncrementItem(ctx context.Context, token string, itemID int64, qty int) (int, error)
	RemoveItem(ctx context.Context, token string, itemID int64) error
	Items(ctx context.Context, token string) (map[int64]int, error)

	PushFlash(ctx context.Context, token string, msg shared.FlashMessage) error
	PopFlash(ctx context.Context, token string) (*shared.FlashMessage, error)
}
