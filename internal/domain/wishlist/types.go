package wishlist

import (
	"errors"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"
)

var (
	ErrItemNotFound      = errors.New("wishlist item not found")
	ErrAlreadyInWishlist = errors.New("variant already in wishlist")
	ErrTransactionFailed = errors.New("wishlist transaction failed")
)

// Item is one wishlist line. Same uniqueness discipline as a cart line —
// at most one per (user, product, source table, variant) — but no quantity:
// wishing twice is a conflict, not a merge.
type Item struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"user_id"`
	ProductID   int64               `json:"product_id"`
	SourceTable catalog.SourceTable `json:"source_table"`
	Variant     variants.Variant    `json:"variant"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Line is an Item denormalized with live product data for display.
type Line struct {
	Item
	ProductName   string  `json:"product_name"`
	ImageURL      string  `json:"image_url"`
	UnitPrice     float64 `json:"unit_price"`
	StockQuantity int     `json:"stock_quantity"`
	IsActive      bool    `json:"is_active"`
}
