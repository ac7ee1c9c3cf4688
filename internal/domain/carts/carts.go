package carts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/infra/dbx"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/money"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Service owns every cart mutation. Each operation is one database
// transaction; the stock check and the cart write happen under a row lock
// on the product row, so concurrent adds of the same product serialize
// instead of racing the check-then-write window.
type Service struct {
	db       dbx.Beginner
	catalog  *catalog.Repository
	notifier Notifier
	logger   *zap.SugaredLogger
}

func NewService(db dbx.Beginner, cat *catalog.Repository, notifier Notifier, logger *zap.SugaredLogger) *Service {
	return &Service{db: db, catalog: cat, notifier: notifier, logger: logger}
}

func (s *Service) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Warnw("cart tx rollback failed", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}
	return nil
}

// AddToCart merges the request into an existing line of the same
// (product, source table, variant) or inserts a new one. The merged
// quantity is re-checked against the locked stock; on violation the whole
// transaction rolls back and the existing line stays untouched.
func (s *Service) AddToCart(ctx context.Context, userID int64, in AddItemInput) (*CartLine, error) {
	var line *CartLine
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var err error
		line, err = s.AddToCartTx(ctx, tx, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdded(ctx, userID, *line)
	return line, nil
}

// AddToCartTx is AddToCart inside a caller-owned transaction. The wishlist
// move uses it so "add to cart + remove from wishlist" commits as a unit.
// No notification is emitted here; the committing caller decides that.
func (s *Service) AddToCartTx(ctx context.Context, tx pgx.Tx, userID int64, in AddItemInput) (*CartLine, error) {
	if in.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.FindByID(ctx, in.ProductID, in.SourceTable)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, catalog.ErrProductNotFound
	}
	if !product.IsActive {
		return nil, catalog.ErrProductInactive
	}

	// Authoritative stock read, not the cached one. The FOR UPDATE lock is
	// held until commit and serializes every concurrent add of this product.
	stock, err := s.catalog.LockStock(ctx, tx, in.ProductID, in.SourceTable)
	if err != nil {
		return nil, err
	}
	if stock < in.Quantity {
		return nil, &InsufficientStockError{Available: stock}
	}

	item := CartItem{
		UserID:      userID,
		ProductID:   in.ProductID,
		SourceTable: in.SourceTable,
		Variant:     in.Variant,
	}
	err = tx.QueryRow(ctx, `
INSERT INTO cart_items (user_id, product_id, source_table, color, size, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, product_id, source_table, color, size)
DO UPDATE SET
  quantity   = cart_items.quantity + EXCLUDED.quantity,
  updated_at = now()
RETURNING id, quantity, created_at, updated_at
`, userID, in.ProductID, in.SourceTable.String(), in.Variant.Color, in.Variant.Size, in.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: upsert cart line: %v", ErrTransactionFailed, err)
	}

	// Merged total may exceed stock even though the increment alone did not.
	if item.Quantity > stock {
		return nil, &InsufficientStockError{Available: stock}
	}

	line := denormalize(item, product)
	return &line, nil
}

// UpdateItem sets the line to an absolute quantity, re-validated against
// the current live stock rather than the stock at add time.
//
// Lock ordering: the product row lock is the only lock either cart write
// path takes before touching cart_items, so a concurrent add and update of
// the same line queue on the product row instead of deadlocking. The line
// is read without FOR UPDATE; the product lock serializes its writers.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	var line *CartLine
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var (
			item     CartItem
			rawTable string
		)
		err := tx.QueryRow(ctx, `
SELECT id, user_id, product_id, source_table, color, size, quantity, created_at, updated_at
FROM cart_items
WHERE id = $1 AND user_id = $2
`, itemID, userID).Scan(
			&item.ID, &item.UserID, &item.ProductID, &rawTable,
			&item.Variant.Color, &item.Variant.Size, &item.Quantity,
			&item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemNotFound
			}
			return fmt.Errorf("%w: select cart line: %v", ErrTransactionFailed, err)
		}

		item.SourceTable, err = catalog.ParseSourceTable(rawTable)
		if err != nil {
			return fmt.Errorf("%w: cart line %d: %v", ErrTransactionFailed, itemID, err)
		}

		stock, err := s.catalog.LockStock(ctx, tx, item.ProductID, item.SourceTable)
		if err != nil {
			return err
		}
		if stock < quantity {
			return &InsufficientStockError{Available: stock}
		}

		// The line may have been deleted between the read and the lock;
		// zero rows here means it is gone, not a fault.
		if err := tx.QueryRow(ctx, `
UPDATE cart_items SET quantity = $1, updated_at = now()
WHERE id = $2 AND user_id = $3
RETURNING updated_at
`, quantity, itemID, userID).Scan(&item.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemNotFound
			}
			return fmt.Errorf("%w: update cart line: %v", ErrTransactionFailed, err)
		}
		item.Quantity = quantity

		product, err := s.catalog.FindByID(ctx, item.ProductID, item.SourceTable)
		if err != nil {
			return err
		}
		if product == nil {
			return catalog.ErrProductNotFound
		}

		l := denormalize(item, product)
		line = &l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// RemoveItem deletes the user's line. Idempotent: removing an absent line
// is a no-op success.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	_, err := s.db.Exec(ctx, `
DELETE FROM cart_items WHERE id = $1 AND user_id = $2
`, itemID, userID)
	if err != nil {
		return fmt.Errorf("%w: remove cart line: %v", ErrTransactionFailed, err)
	}
	return nil
}

// Clear empties the user's cart and returns how many lines were removed.
// Zero removed is success, not an error.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: clear cart: %v", ErrTransactionFailed, err)
	}
	return tag.RowsAffected(), nil
}

// GetSummary returns every line denormalized with live product data plus
// the aggregate totals. Lines whose product row has vanished since the add
// are dropped from the view (and logged), not surfaced as errors.
func (s *Service) GetSummary(ctx context.Context, userID int64) (*Summary, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, user_id, product_id, source_table, color, size, quantity, created_at, updated_at
FROM cart_items
WHERE user_id = $1
ORDER BY id ASC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var (
			item     CartItem
			rawTable string
		)
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &rawTable,
			&item.Variant.Color, &item.Variant.Size, &item.Quantity,
			&item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if item.SourceTable, err = catalog.ParseSourceTable(rawTable); err != nil {
			s.logger.Warnw("cart line with unknown source table skipped", "item", item.ID, "table", rawTable)
			continue
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cart rows: %w", err)
	}

	var lines []CartLine
	for _, item := range items {
		product, err := s.catalog.FindByID(ctx, item.ProductID, item.SourceTable)
		if err != nil {
			return nil, err
		}
		if product == nil {
			s.logger.Warnw("cart line references missing product", "item", item.ID,
				"product", item.ProductID, "table", item.SourceTable)
			continue
		}
		lines = append(lines, denormalize(item, product))
	}

	sum := summarize(lines)
	return &sum, nil
}

func (s *Service) notifyAdded(ctx context.Context, userID int64, line CartLine) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.notifier.CartItemAdded(ctx, userID, line); err != nil {
			s.logger.Warnw("cart added notification failed", "user", userID, "item", line.ID, "error", err)
		}
	}()
}

func denormalize(item CartItem, p *catalog.Product) CartLine {
	return CartLine{
		CartItem:      item,
		ProductName:   p.Name,
		ImageURL:      p.ImageURL,
		UnitPrice:     p.Price,
		LineTotal:     money.Round2(float64(item.Quantity) * p.Price),
		StockQuantity: p.StockQuantity,
	}
}

// summarize totals the lines. The grand total is rounded once, at the sum.
func summarize(lines []CartLine) Summary {
	sum := Summary{Items: lines}
	if lines == nil {
		sum.Items = []CartLine{}
	}

	var total float64
	for _, l := range lines {
		sum.TotalItems += l.Quantity
		total += float64(l.Quantity) * l.UnitPrice
	}
	sum.TotalPrice = money.Round2(total)
	return sum
}
