package carts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/cache"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// fakeTx stands in for a pgx transaction. QueryRow dispatches on SQL
// fragments and serves rows from the fields below; every statement is
// recorded in order so tests can assert on lock ordering.
type fakeTx struct {
	stock    int       // served by the product row lock
	existing int       // quantity already on the cart line, merged by the upsert
	line     *CartItem // served to the cart line read; nil means no such line

	log        []string
	committed  bool
	rolledBack bool
}

func (f *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.log = append(f.log, sql)
	switch {
	case strings.Contains(sql, "INSERT INTO cart_items"):
		qty, _ := args[5].(int)
		merged := f.existing + qty
		return rowFunc(func(dest ...any) error {
			*(dest[0].(*int64)) = 100
			*(dest[1].(*int)) = merged
			*(dest[2].(*time.Time)) = time.Now()
			*(dest[3].(*time.Time)) = time.Now()
			return nil
		})
	case strings.Contains(sql, "UPDATE cart_items"):
		return rowFunc(func(dest ...any) error {
			*(dest[0].(*time.Time)) = time.Now()
			return nil
		})
	case strings.Contains(sql, "FOR UPDATE"):
		return rowFunc(func(dest ...any) error {
			*(dest[0].(*int)) = f.stock
			return nil
		})
	case strings.Contains(sql, "FROM cart_items"):
		return rowFunc(func(dest ...any) error {
			if f.line == nil {
				return pgx.ErrNoRows
			}
			l := f.line
			*(dest[0].(*int64)) = l.ID
			*(dest[1].(*int64)) = l.UserID
			*(dest[2].(*int64)) = l.ProductID
			*(dest[3].(*string)) = l.SourceTable.String()
			*(dest[4].(*string)) = l.Variant.Color
			*(dest[5].(*string)) = l.Variant.Size
			*(dest[6].(*int)) = l.Quantity
			*(dest[7].(*time.Time)) = l.CreatedAt
			*(dest[8].(*time.Time)) = l.UpdatedAt
			return nil
		})
	default:
		panic("fakeTx: unexpected query: " + sql)
	}
}

func (f *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.log = append(f.log, sql)
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	f.rolledBack = true
	return nil
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("fakeTx: multi-row queries not supported")
}
func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) { panic("fakeTx: nested tx") }
func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("fakeTx: CopyFrom not supported")
}
func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("fakeTx: SendBatch not supported")
}
func (f *fakeTx) LargeObjects() pgx.LargeObjects { panic("fakeTx: LargeObjects not supported") }
func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("fakeTx: Prepare not supported")
}
func (f *fakeTx) Conn() *pgx.Conn { panic("fakeTx: Conn not supported") }

// fakeBeginner hands every transaction the one scripted fakeTx. Plain
// Querier access panics: the operations under test are transactional.
type fakeBeginner struct{ tx *fakeTx }

func (f *fakeBeginner) Begin(context.Context) (pgx.Tx, error) { return f.tx, nil }
func (f *fakeBeginner) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("fakeBeginner: use the transaction")
}
func (f *fakeBeginner) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("fakeBeginner: use the transaction")
}
func (f *fakeBeginner) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("fakeBeginner: use the transaction")
}

// fakeProductDB serves the catalog repository a single product row.
type fakeProductDB struct{ p *catalog.Product }

func (f *fakeProductDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return rowFunc(func(dest ...any) error {
		if f.p == nil {
			return pgx.ErrNoRows
		}
		p := f.p
		*(dest[0].(*int64)) = p.ID
		*(dest[1].(*string)) = p.Name
		*(dest[2].(*string)) = p.Description
		*(dest[3].(*float64)) = p.Price
		*(dest[4].(**float64)) = p.OriginalPrice
		*(dest[5].(*string)) = p.ImageURL
		*(dest[6].(**string)) = p.Brand
		*(dest[7].(**string)) = p.Category
		*(dest[8].(**string)) = p.SKU
		*(dest[9].(*int)) = p.StockQuantity
		*(dest[10].(*bool)) = p.IsActive
		*(dest[11].(*time.Time)) = p.CreatedAt
		*(dest[12].(*time.Time)) = p.UpdatedAt
		return nil
	})
}
func (f *fakeProductDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("fakeProductDB: writes not supported")
}
func (f *fakeProductDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("fakeProductDB: multi-row queries not supported")
}

func newTestService(tx *fakeTx, p *catalog.Product) *Service {
	logger := zap.NewNop().Sugar()
	repo := catalog.NewRepository(&fakeProductDB{p: p}, cache.NewMemory(), logger)
	return NewService(&fakeBeginner{tx: tx}, repo, nil, logger)
}

func TestAddToCartMergesIntoExistingLine(t *testing.T) {
	tx := &fakeTx{stock: 10, existing: 2}
	svc := newTestService(tx, &catalog.Product{
		ID: 7, Name: "Trail Runner", Price: 59.99, StockQuantity: 10, IsActive: true,
	})

	line, err := svc.AddToCart(context.Background(), 1, AddItemInput{
		ProductID: 7, SourceTable: catalog.TableMen, Quantity: 3,
		Variant: variants.Variant{Color: "Red", Size: "9"},
	})

	require.NoError(t, err)
	// Same product and variant: one line holding both quantities, not two lines.
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, tx.committed)
}

func TestAddToCartMergedTotalExceedsStockRollsBack(t *testing.T) {
	// 3 already in the cart, 4 in stock. Adding 2 passes the increment
	// check but the merged 5 does not.
	tx := &fakeTx{stock: 4, existing: 3}
	svc := newTestService(tx, &catalog.Product{
		ID: 7, Name: "Trail Runner", Price: 59.99, StockQuantity: 4, IsActive: true,
	})

	_, err := svc.AddToCart(context.Background(), 1, AddItemInput{
		ProductID: 7, SourceTable: catalog.TableMen, Quantity: 2,
	})

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 4, ise.Available)
	// Rolled back, not committed: the existing line keeps quantity 3.
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestAddToCartIncrementExceedsStock(t *testing.T) {
	tx := &fakeTx{stock: 1}
	svc := newTestService(tx, &catalog.Product{
		ID: 7, Name: "Trail Runner", Price: 59.99, StockQuantity: 1, IsActive: true,
	})

	_, err := svc.AddToCart(context.Background(), 1, AddItemInput{
		ProductID: 7, SourceTable: catalog.TableMen, Quantity: 5,
	})

	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 1, ise.Available)
	// Rejected before the upsert ever ran.
	for _, stmt := range tx.log {
		assert.NotContains(t, stmt, "INSERT INTO cart_items")
	}
}

func TestUpdateItemLocksProductBeforeCartWrite(t *testing.T) {
	now := time.Now()
	tx := &fakeTx{stock: 10, line: &CartItem{
		ID: 10, UserID: 1, ProductID: 7, SourceTable: catalog.TableMen,
		Quantity: 2, Variant: variants.Variant{Color: "Red", Size: "9"},
		CreatedAt: now, UpdatedAt: now,
	}}
	svc := newTestService(tx, &catalog.Product{
		ID: 7, Name: "Trail Runner", Price: 59.99, StockQuantity: 10, IsActive: true,
	})

	line, err := svc.UpdateItem(context.Background(), 1, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)
	assert.True(t, tx.committed)

	// The only row lock taken is the product row's, and it is taken before
	// the cart write. Locking the cart line first would invert the order
	// the add path uses and deadlock against it.
	lockIdx, writeIdx := -1, -1
	for i, stmt := range tx.log {
		if strings.Contains(stmt, "FOR UPDATE") {
			assert.NotContains(t, stmt, "cart_items")
			lockIdx = i
		}
		if strings.Contains(stmt, "UPDATE cart_items") {
			writeIdx = i
		}
	}
	require.NotEqual(t, -1, lockIdx, "product row lock not taken")
	require.NotEqual(t, -1, writeIdx, "cart line never written")
	assert.Less(t, lockIdx, writeIdx)
}

func TestUpdateItemMissingLine(t *testing.T) {
	tx := &fakeTx{stock: 10}
	svc := newTestService(tx, &catalog.Product{
		ID: 7, Name: "Trail Runner", StockQuantity: 10, IsActive: true,
	})

	_, err := svc.UpdateItem(context.Background(), 1, 99, 2)
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.False(t, tx.committed)
}

func TestSummarizeRoundsAtSumLevel(t *testing.T) {
	lines := []CartLine{
		{CartItem: CartItem{Quantity: 3}, UnitPrice: 33.335},
		{CartItem: CartItem{Quantity: 1}, UnitPrice: 0.004},
	}

	sum := summarize(lines)

	assert.Equal(t, 4, sum.TotalItems)
	// 3*33.335 + 0.004 = 100.009 → 100.01 once, at the sum; rounding each
	// line first would give 100.00 + 0.00 = 100.00.
	assert.InDelta(t, 100.01, sum.TotalPrice, 1e-9)
}

func TestSummarizeEmptyCart(t *testing.T) {
	sum := summarize(nil)
	assert.NotNil(t, sum.Items)
	assert.Empty(t, sum.Items)
	assert.Zero(t, sum.TotalItems)
	assert.Zero(t, sum.TotalPrice)
}

func TestDenormalize(t *testing.T) {
	item := CartItem{
		ID:          10,
		UserID:      1,
		ProductID:   7,
		SourceTable: catalog.TableMen,
		Quantity:    2,
		Variant:     variants.Variant{Color: "Red", Size: "9"},
	}
	p := &catalog.Product{
		ID:            7,
		Name:          "Trail Runner",
		Price:         59.99,
		ImageURL:      "https://cdn.example/trail.jpg",
		StockQuantity: 5,
	}

	line := denormalize(item, p)

	assert.Equal(t, "Trail Runner", line.ProductName)
	assert.Equal(t, 59.99, line.UnitPrice)
	assert.InDelta(t, 119.98, line.LineTotal, 1e-9)
	assert.Equal(t, 5, line.StockQuantity)
	assert.Equal(t, item, line.CartItem)
}

func TestInsufficientStockError(t *testing.T) {
	var err error = &InsufficientStockError{Available: 5}
	assert.Equal(t, "insufficient stock: 5 available", err.Error())

	// Callers unwrap the payload through errors.As even when wrapped.
	wrapped := fmt.Errorf("add to cart: %w", err)
	var ise *InsufficientStockError
	assert.True(t, errors.As(wrapped, &ise))
	assert.Equal(t, 5, ise.Available)
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.NotErrorIs(t, ErrItemNotFound, catalog.ErrProductNotFound)
	assert.NotErrorIs(t, ErrInvalidQuantity, ErrItemNotFound)

	wrapped := fmt.Errorf("%w: commit: boom", ErrTransactionFailed)
	assert.ErrorIs(t, wrapped, ErrTransactionFailed)
}
