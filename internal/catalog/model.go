// Package catalog owns products and categories: CRUD, validation and the
// admin statistics. The cart only reads from it through FindByID.
package catalog

import (
	"strings"
	"time"

	"github.com/inventario/inventario/internal/shared"
)

// LowStockThreshold marks products that need restocking.
const LowStockThreshold = 10

// Product is a catalog item.
type Product struct {
	ID        int64        `json:"id"`
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Price     shared.Money `json:"price"`
	Stock     int          `json:"stock"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// StockValue is price times units on hand.
func (p Product) StockValue() shared.Money {
	return p.Price.Mul(p.Stock)
}

// LowStock reports whether the product is below the restocking threshold.
func (p Product) LowStock() bool {
	return p.Stock < LowStockThreshold
}

// Category groups products by name.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SortKey is a whitelisted product ordering column.
type SortKey string

const (
	SortByID    SortKey = "id"
	SortByCode  SortKey = "codigo"
	SortByName  SortKey = "nombre"
	SortByPrice SortKey = "precio"
	SortByStock SortKey = "stock"
)

// Direction is an ordering direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseSort maps request parameters onto the whitelist, defaulting to id asc.
func ParseSort(key, dir string) (SortKey, Direction) {
	k := SortKey(strings.ToLower(strings.TrimSpace(key)))
	switch k {
	case SortByID, SortByCode, SortByName, SortByPrice, SortByStock:
	default:
		k = SortByID
	}
	d := Direction(strings.ToLower(strings.TrimSpace(dir)))
	if d != Desc {
		d = Asc
	}
	return k, d
}

func (k SortKey) column() string {
	switch k {
	case SortByCode:
		return "codigo"
	case SortByName:
		return "nombre"
	case SortByPrice:
		return "precio_cents"
	case SortByStock:
		return "stock"
	default:
		return "id"
	}
}
