package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductInactive    = errors.New("product is not available")
	ErrUnknownSourceTable = errors.New("unknown source table")
	ErrUnknownTab         = errors.New("unknown catalog tab")
)

// Product is the uniform view over the three segment tables. StockQuantity
// and IsActive are normalized from whichever physical column the source
// table uses; optional columns the table lacks come back nil.
type Product struct {
	ID            int64       `json:"id"`
	SourceTable   SourceTable `json:"source_table"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Price         float64     `json:"price"`
	OriginalPrice *float64    `json:"original_price,omitempty"`
	ImageURL      string      `json:"image_url"`
	Brand         *string     `json:"brand,omitempty"`
	Category      *string     `json:"category,omitempty"`
	SKU           *string     `json:"sku,omitempty"`
	StockQuantity int         `json:"stock_quantity"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Tab scopes search and listing to one segment table or to all three.
type Tab string

const (
	TabAll   Tab = "all"
	TabMen   Tab = "men"
	TabWomen Tab = "women"
	TabKids  Tab = "kids"
)

func ParseTab(s string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case "", TabAll:
		return TabAll, nil
	case TabMen:
		return TabMen, nil
	case TabWomen:
		return TabWomen, nil
	case TabKids:
		return TabKids, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
}

// tables returns the segment tables a tab spans, in the fixed probe order.
func (t Tab) tables() []SourceTable {
	switch t {
	case TabMen:
		return []SourceTable{TableMen}
	case TabWomen:
		return []SourceTable{TableWomen}
	case TabKids:
		return []SourceTable{TableKids}
	default:
		return SourceTables
	}
}

// ListFilters narrows a tab listing. Zero values mean "no filter".
type ListFilters struct {
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	Sort     string   `json:"sort,omitempty"` // price_asc | price_desc | name | newest (default)
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Cache is the read-through cache the repository populates on miss and
// invalidates on write. Satisfied by cache.Redis and cache.Memory.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Cache TTLs per read path. Writes invalidate explicitly; the TTL only
// bounds staleness if a crash lands between the write and the invalidation.
const (
	productCacheTTL  = 30 * time.Minute
	searchCacheTTL   = 5 * time.Minute
	listCacheTTL     = 10 * time.Minute
	featuredCacheTTL = 15 * time.Minute
)
