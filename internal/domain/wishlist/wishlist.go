// Package wishlist mirrors the cart's variant-dedup discipline without
// quantity or stock gating: an out-of-stock shoe can be wished for, a
// duplicate variant cannot.
package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Service struct {
	db      dbx.Beginner
	catalog *catalog.Repository
	carts   *carts.Service
	logger  *zap.SugaredLogger
}

func NewService(db dbx.Beginner, cat *catalog.Repository, cartSvc *carts.Service, logger *zap.SugaredLogger) *Service {
	return &Service{db: db, catalog: cat, carts: cartSvc, logger: logger}
}

// Add inserts the variant. The product must exist; stock and active state
// are not gated. A duplicate variant surfaces ErrAlreadyInWishlist, it is
// never merged.
func (s *Service) Add(ctx context.Context, userID int64, productID int64, table catalog.SourceTable, v variants.Variant) (*Line, error) {
	product, err := s.catalog.FindByID(ctx, productID, table)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, catalog.ErrProductNotFound
	}

	item := Item{
		UserID:      userID,
		ProductID:   productID,
		SourceTable: table,
		Variant:     v,
	}
	err = s.db.QueryRow(ctx, `
INSERT INTO wishlist_items (user_id, product_id, source_table, color, size)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at
`, userID, productID, table.String(), v.Color, v.Size).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyInWishlist
		}
		return nil, fmt.Errorf("%w: insert wishlist line: %v", ErrTransactionFailed, err)
	}

	line := denormalize(item, product)
	return &line, nil
}

// Remove deletes the user's line. Idempotent.
func (s *Service) Remove(ctx context.Context, userID, itemID int64) error {
	_, err := s.db.Exec(ctx, `
DELETE FROM wishlist_items WHERE id = $1 AND user_id = $2
`, itemID, userID)
	if err != nil {
		return fmt.Errorf("%w: remove wishlist line: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Clear empties the user's wishlist and returns how many lines were removed.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM wishlist_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: clear wishlist: %v", ErrTransactionFailed, err)
	}
	return tag.RowsAffected(), nil
}

// List returns the user's wishlist denormalized with live product data.
// Lines whose product has vanished are skipped, same policy as the cart.
func (s *Service) List(ctx context.Context, userID int64) ([]Line, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, product_id, source_table, color, size, created_at, updated_at
FROM wishlist_items
WHERE user_id = $1
ORDER BY id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item     Item
			rawTable string
		)
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &rawTable,
			&item.Variant.Color, &item.Variant.Size,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		if item.SourceTable, err = catalog.ParseSourceTable(rawTable); err != nil {
			s.logger.Warnw("wishlist line with unknown source table skipped", "item", item.ID, "table", rawTable)
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("wishlist rows: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, item := range items {
		product, err := s.catalog.FindByID(ctx, item.ProductID, item.SourceTable)
		if err != nil {
			return nil, err
		}
		if product == nil {
			s.logger.Warnw("wishlist line references missing product", "item", item.ID,
				"product", item.ProductID, "table", item.SourceTable)
			continue
		}
		lines = append(lines, denormalize(item, product))
	}
	return lines, nil
}

// MoveToCart turns a wishlist line into a cart line as one transaction:
// the cart add and the wishlist delete commit together, so a failed add
// (say, out of stock) leaves the wishlist line exactly where it was.
func (s *Service) MoveToCart(ctx context.Context, userID, itemID int64, quantity int) (*carts.CartLine, error) {
	if quantity < 1 {
		quantity = 1
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Warnw("wishlist tx rollback failed", "error", err)
		}
	}()

	var (
		item     Item
		rawTable string
	)
	err = tx.QueryRow(ctx, `
SELECT id, product_id, source_table, color, size
FROM wishlist_items
WHERE id = $1 AND user_id = $2
FOR UPDATE
`, itemID, userID).Scan(&item.ID, &item.ProductID, &rawTable, &item.Variant.Color, &item.Variant.Size)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("%w: select wishlist line: %v", ErrTransactionFailed, err)
	}
	if item.SourceTable, err = catalog.ParseSourceTable(rawTable); err != nil {
		return nil, fmt.Errorf("%w: wishlist line %d: %v", ErrTransactionFailed, itemID, err)
	}

	line, err := s.carts.AddToCartTx(ctx, tx, userID, carts.AddItemInput{
		ProductID:   item.ProductID,
		SourceTable: item.SourceTable,
		Quantity:    quantity,
		Variant:     item.Variant,
	})
	if err != nil {
		// Rolls back; the wishlist line stays untouched.
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM wishlist_items WHERE id = $1`, itemID); err != nil {
		return nil, fmt.Errorf("%w: delete wishlist line: %v", ErrTransactionFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return line, nil
}

func denormalize(item Item, p *catalog.Product) Line {
	return Line{
		Item:          item,
		ProductName:   p.Name,
		ImageURL:      p.ImageURL,
		UnitPrice:     p.Price,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
	}
}
