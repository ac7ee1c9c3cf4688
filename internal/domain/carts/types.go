package carts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"
)

var (
	ErrItemNotFound      = errors.New("cart item not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrTransactionFailed = errors.New("cart transaction failed")
)

// InsufficientStockError reports how much stock was actually available at
// the moment of the (locked) check, so the UI can offer the remainder.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// CartItem is one cart line as persisted. At most one exists per
// (user, product, source table, variant).
type CartItem struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"user_id"`
	ProductID   int64               `json:"product_id"`
	SourceTable catalog.SourceTable `json:"source_table"`
	Quantity    int                 `json:"quantity"`
	Variant     variants.Variant    `json:"variant"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CartLine is a CartItem denormalized with live product data for display.
type CartLine struct {
	CartItem
	ProductName   string  `json:"product_name"`
	ImageURL      string  `json:"image_url"`
	UnitPrice     float64 `json:"unit_price"`
	LineTotal     float64 `json:"line_total"`
	StockQuantity int     `json:"stock_quantity"`
}

// Summary aggregates a user's cart. TotalPrice is rounded to 2 decimals at
// the sum level, not per line.
type Summary struct {
	Items      []CartLine `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice float64    `json:"total_price"`
}

type AddItemInput struct {
	ProductID   int64
	SourceTable catalog.SourceTable
	Quantity    int
	Variant     variants.Variant
}

// Notifier receives the fire-and-forget "cart item added" event. Failures
// never roll back the cart mutation.
type Notifier interface {
	CartItemAdded(ctx context.Context, userID int64, line CartLine) error
}
