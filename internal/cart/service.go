// Package cart implements the session-scoped shopping cart. A cart holds item
// identifiers and quantities only; prices and names are resolved against the
// catalog each time the cart is read.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/inventario/inventario/internal/catalog"
	"github.com/inventario/inventario/internal/session"
	"github.com/inventario/inventario/internal/shared"
)

// Storage persists cart lines under a session token.
type Storage interface {
	IncrementItem(ctx context.Context, token string, itemID int64, qty int) (int, error)
	RemoveItem(ctx context.Context, token string, itemID int64) error
	Items(ctx context.Context, token string) (map[int64]int, error)
}

// ItemFinder resolves catalog items.
type ItemFinder interface {
	FindByID(ctx context.Context, id int64) (catalog.Product, error)
}

// Line is one resolved cart entry.
type Line struct {
	Item      catalog.Product
	Quantity  int
	LineTotal shared.Money
}

// View is the presentation of a cart at read time.
type View struct {
	Lines []Line
	Total shared.Money
}

// Units returns the number of units across the resolved lines.
func (v View) Units() int {
	n := 0
	for _, l := range v.Lines {
		n += l.Quantity
	}
	return n
}

// Service implements cart operations.
type Service struct {
	store   Storage
	catalog ItemFinder
	timeout time.Duration
}

// NewService constructs a Service.
func NewService(store Storage, finder ItemFinder, storeTimeout time.Duration) *Service {
	return &Service{store: store, catalog: finder, timeout: storeTimeout}
}

// Add sums qty into the line for itemID. The item is not checked against the
// catalog here.
func (s *Service) Add(ctx context.Context, sess *session.Session, itemID int64, qty int) (int, error) {
	if !sess.Bound() {
		return 0, shared.ErrUnauthorized
	}
	if qty < 1 || qty > shared.MaxCartQuantity {
		return 0, shared.ErrInvalidQuantity
	}
	var total int
	err := shared.WithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
		var err error
		total, err = s.store.IncrementItem(ctx, sess.Token, itemID, qty)
		return err
	})
	if err != nil {
		return 0, mapStoreErr(err)
	}
	return total, nil
}

// Remove drops the line for itemID. Removing an absent item is a no-op.
func (s *Service) Remove(ctx context.Context, sess *session.Session, itemID int64) error {
	if !sess.Bound() {
		return shared.ErrUnauthorized
	}
	err := shared.WithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
		return s.store.RemoveItem(ctx, sess.Token, itemID)
	})
	return mapStoreErr(err)
}

// List resolves every line against the catalog. Items the catalog no longer
// knows are left out of the view but keep their stored quantity, so they
// reappear if the item is restored.
func (s *Service) List(ctx context.Context, sess *session.Session) (View, error) {
	items, err := s.items(ctx, sess)
	if err != nil {
		return View{}, err
	}
	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	view := View{Lines: make([]Line, 0, len(ids))}
	for _, id := range ids {
		qty := items[id]
		var item catalog.Product
		err := shared.WithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
			var err error
			item, err = s.catalog.FindByID(ctx, id)
			return err
		})
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return View{}, fmt.Errorf("cart: resolve item %d: %w", id, err)
		}
		line := Line{Item: item, Quantity: qty, LineTotal: item.Price.Mul(qty)}
		view.Lines = append(view.Lines, line)
		view.Total += line.LineTotal
	}
	return view, nil
}

// Count returns the total stored units, resolved or not.
func (s *Service) Count(ctx context.Context, sess *session.Session) (int, error) {
	items, err := s.items(ctx, sess)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, qty := range items {
		n += qty
	}
	return n, nil
}

func (s *Service) items(ctx context.Context, sess *session.Session) (map[int64]int, error) {
	if !sess.Bound() {
		return nil, shared.ErrUnauthorized
	}
	var items map[int64]int
	err := shared.WithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
		var err error
		items, err = s.store.Items(ctx, sess.Token)
		return err
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return items, nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, session.ErrSessionNotFound) {
		return shared.ErrUnauthorized
	}
	return err
}
