package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testRow func(dest ...any) error

func (f testRow) Scan(dest ...any) error { return f(dest...) }

// cartRows serves GetSummary one cart line and then reports exhaustion.
type cartRows struct {
	served bool
}

func (r *cartRows) Next() bool {
	if r.served {
		return false
	}
	r.served = true
	return true
}

func (r *cartRows) Scan(dest ...any) error {
	now := time.Now()
	*(dest[0].(*int64)) = 10        // id
	*(dest[1].(*int64)) = 1         // user_id
	*(dest[2].(*int64)) = 7         // product_id
	*(dest[3].(*string)) = "men"    // source_table
	*(dest[4].(*string)) = "Red"    // color
	*(dest[5].(*string)) = "9"      // size
	*(dest[6].(*int)) = 2           // quantity
	*(dest[7].(*time.Time)) = now   // created_at
	*(dest[8].(*time.Time)) = now   // updated_at
	return nil
}

func (r *cartRows) Close()                                       {}
func (r *cartRows) Err() error                                   { return nil }
func (r *cartRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT 1") }
func (r *cartRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *cartRows) Values() ([]any, error)                       { return nil, nil }
func (r *cartRows) RawValues() [][]byte                          { return nil }
func (r *cartRows) Conn() *pgx.Conn                              { return nil }

// cartDB serves the cart listing query and nothing else.
type cartDB struct{}

func (cartDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return &cartRows{}, nil }
func (cartDB) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("cartDB: single-row queries not supported")
}
func (cartDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("cartDB: writes not supported")
}
func (cartDB) Begin(context.Context) (pgx.Tx, error) { panic("cartDB: transactions not supported") }

// flakyProductDB answers the first product lookup and fails every one after
// it, standing in for a database that drops out mid-request.
type flakyProductDB struct {
	calls int
}

func (f *flakyProductDB) QueryRow(context.Context, string, ...any) pgx.Row {
	f.calls++
	if f.calls > 1 {
		return testRow(func(...any) error { return errors.New("connection reset") })
	}
	return testRow(func(dest ...any) error {
		now := time.Now()
		*(dest[0].(*int64)) = 7
		*(dest[1].(*string)) = "Trail Runner"
		*(dest[2].(*string)) = ""
		*(dest[3].(*float64)) = 59.99
		*(dest[4].(**float64)) = nil
		*(dest[5].(*string)) = ""
		*(dest[6].(**string)) = nil
		*(dest[7].(**string)) = nil
		*(dest[8].(**string)) = nil
		*(dest[9].(*int)) = 5
		*(dest[10].(*bool)) = true
		*(dest[11].(*time.Time)) = now
		*(dest[12].(*time.Time)) = now
		return nil
	})
}
func (f *flakyProductDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("flakyProductDB: writes not supported")
}
func (f *flakyProductDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("flakyProductDB: multi-row queries not supported")
}

// missCache never hits, so every lookup reaches the database.
type missCache struct{}

func (missCache) Get(context.Context, string, any) (bool, error)           { return false, nil }
func (missCache) Set(context.Context, string, any, time.Duration) error    { return nil }
func (missCache) Delete(context.Context, ...string) error                  { return nil }
func (missCache) DeletePattern(context.Context, string) error              { return nil }

// A product lookup fault while collecting category context drops the line
// from the category set but must leave a trace in the log.
func TestCartDiscountContextLogsLookupFaults(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core).Sugar()

	repo := catalog.NewRepository(&flakyProductDB{}, missCache{}, logger)
	app := &application{
		catalog: repo,
		carts:   carts.NewService(cartDB{}, repo, nil, logger),
		logger:  logger,
	}

	total, productIDs, categories, err := app.cartDiscountContext(context.Background(), 1)

	require.NoError(t, err)
	assert.InDelta(t, 119.98, total, 1e-9)
	assert.Equal(t, []int64{7}, productIDs)
	assert.Empty(t, categories)
	assert.Equal(t, 1, logs.FilterMessage("discount context: product lookup failed").Len())
}
