package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/inventario/inventario/internal/shared"
)

// memRepo is an in-memory ProductRepository and CategoryRepository.
type memRepo struct {
	mu         sync.Mutex
	products   map[int64]Product
	categories map[int64]Category
	nextID     int64
	topCalls   atomic.Int64
	topErr     error
}

func newMemRepo(products ...Product) *memRepo {
	r := &memRepo{products: make(map[int64]Product), categories: make(map[int64]Category)}
	for _, p := range products {
		if p.ID > r.nextID {
			r.nextID = p.ID
		}
		r.products[p.ID] = p
	}
	return r
}

func (r *memRepo) FindByID(_ context.Context, id int64) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memRepo) sorted(key SortKey, dir Direction) []Product {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	less := func(a, b Product) int {
		switch key {
		case SortByCode:
			return strings.Compare(a.Code, b.Code)
		case SortByName:
			return strings.Compare(a.Name, b.Name)
		case SortByPrice:
			return compareInt(int64(a.Price), int64(b.Price))
		case SortByStock:
			return compareInt(int64(a.Stock), int64(b.Stock))
		default:
			return compareInt(a.ID, b.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		c := less(out[i], out[j])
		if dir == Desc {
			c = -c
		}
		if c == 0 {
			return out[i].ID < out[j].ID
		}
		return c < 0
	})
	return out
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (r *memRepo) FindAll(_ context.Context, key SortKey, dir Direction) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(key, dir), nil
}

func (r *memRepo) Top(ctx context.Context, key SortKey, dir Direction, limit int) ([]Product, error) {
	r.topCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.topErr != nil {
		return nil, r.topErr
	}
	out := r.sorted(key, dir)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) CodeTaken(_ context.Context, code string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Code == code && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.products), nil
}

func (r *memRepo) Create(_ context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *memRepo) Update(_ context.Context, p Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return shared.ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memRepo) FindCategory(_ context.Context, id int64) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memRepo) ListCategories(context.Context) ([]Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memRepo) CategoryNameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if strings.EqualFold(c.Name, name) && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) CountCategories(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.categories), nil
}

func (r *memRepo) CreateCategory(_ context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.categories[c.ID] = c
	return c, nil
}

func (r *memRepo) UpdateCategory(_ context.Context, c Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return shared.ErrNotFound
	}
	r.categories[c.ID] = c
	return nil
}

func (r *memRepo) DeleteCategory(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

type countingInvalidator struct {
	calls atomic.Int64
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls.Add(1)
	return nil
}

func item(id int64, code string, price shared.Money, stock int) Product {
	return Product{ID: id, Code: code, Name: "Producto " + code, Price: price, Stock: stock, Active: true}
}
