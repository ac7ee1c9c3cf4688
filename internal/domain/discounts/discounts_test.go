package discounts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptrF(f float64) *float64 { return &f }
func ptrI(i int) *int         { return &i }
func ptrT(t time.Time) *time.Time {
	return &t
}

func active(t DiscountType, value float64) *DiscountCode {
	return &DiscountCode{Code: "SOLE-TEST", Type: t, Value: value, IsActive: true}
}

func reason(t *testing.T, err error) string {
	t.Helper()
	var inv *DiscountInvalidError
	require.True(t, errors.As(err, &inv), "expected DiscountInvalidError, got %v", err)
	return inv.Reason
}

func TestCalculateValidity(t *testing.T) {
	t.Run("nil code", func(t *testing.T) {
		amount, err := Calculate(nil, 100, nil, nil, now)
		assert.Zero(t, amount)
		assert.Equal(t, "unknown code", reason(t, err))
	})

	t.Run("disabled", func(t *testing.T) {
		dc := active(TypePercentage, 10)
		dc.IsActive = false
		amount, err := Calculate(dc, 100, nil, nil, now)
		assert.Zero(t, amount)
		assert.Equal(t, "code is disabled", reason(t, err))
	})

	t.Run("not started", func(t *testing.T) {
		dc := active(TypePercentage, 10)
		dc.StartsAt = ptrT(now.Add(time.Hour))
		_, err := Calculate(dc, 100, nil, nil, now)
		assert.Equal(t, "code is not active yet", reason(t, err))
	})

	t.Run("expired", func(t *testing.T) {
		dc := active(TypePercentage, 10)
		dc.ExpiresAt = ptrT(now.Add(-time.Hour))
		_, err := Calculate(dc, 100, nil, nil, now)
		assert.Equal(t, "code has expired", reason(t, err))
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		dc := active(TypePercentage, 10)
		dc.StartsAt = ptrT(now)
		dc.ExpiresAt = ptrT(now)
		amount, err := Calculate(dc, 100, nil, nil, now)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, amount, 1e-9)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		dc := active(TypePercentage, 10)
		dc.UsageLimit = ptrI(5)
		dc.UsedCount = 5
		_, err := Calculate(dc, 100, nil, nil, now)
		assert.Equal(t, "usage limit reached", reason(t, err))
	})

	t.Run("under usage limit", func(t *testing.T) {
		dc := active(TypePercentage, 10)
		dc.UsageLimit = ptrI(5)
		dc.UsedCount = 4
		_, err := Calculate(dc, 100, nil, nil, now)
		assert.NoError(t, err)
	})
}

func TestCalculateMinimumAmount(t *testing.T) {
	dc := active(TypeFixed, 10)
	dc.MinimumAmount = ptrF(50)

	amount, err := Calculate(dc, 49.99, nil, nil, now)
	assert.Zero(t, amount)
	assert.Contains(t, reason(t, err), "below minimum")

	amount, err = Calculate(dc, 50, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 10.0, amount)
}

func TestCalculateApplicability(t *testing.T) {
	t.Run("empty sets apply to all", func(t *testing.T) {
		_, err := Calculate(active(TypePercentage, 5), 100, []int64{1, 2}, []string{"boots"}, now)
		assert.NoError(t, err)
	})

	t.Run("product intersection", func(t *testing.T) {
		dc := active(TypePercentage, 5)
		dc.ApplicableProducts = []int64{7, 8}

		_, err := Calculate(dc, 100, []int64{8, 99}, nil, now)
		assert.NoError(t, err)

		_, err = Calculate(dc, 100, []int64{1, 2}, nil, now)
		assert.Equal(t, "code does not apply to these items", reason(t, err))
	})

	t.Run("category intersection", func(t *testing.T) {
		dc := active(TypePercentage, 5)
		dc.ApplicableCategories = []string{"running"}

		_, err := Calculate(dc, 100, nil, []string{"running", "casual"}, now)
		assert.NoError(t, err)

		_, err = Calculate(dc, 100, nil, []string{"casual"}, now)
		assert.Error(t, err)
	})

	t.Run("either axis qualifies", func(t *testing.T) {
		dc := active(TypePercentage, 5)
		dc.ApplicableProducts = []int64{7}
		dc.ApplicableCategories = []string{"running"}

		_, err := Calculate(dc, 100, nil, []string{"running"}, now)
		assert.NoError(t, err)
	})
}

func TestCalculateAmounts(t *testing.T) {
	t.Run("percentage rounds to cents", func(t *testing.T) {
		amount, err := Calculate(active(TypePercentage, 10), 99.99, nil, nil, now)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, amount, 1e-9) // 9.999 rounds up
	})

	t.Run("fixed never exceeds order total", func(t *testing.T) {
		amount, err := Calculate(active(TypeFixed, 50), 30, nil, nil, now)
		require.NoError(t, err)
		assert.Equal(t, 30.0, amount)
	})

	t.Run("fixed below total passes through", func(t *testing.T) {
		amount, err := Calculate(active(TypeFixed, 50), 120, nil, nil, now)
		require.NoError(t, err)
		assert.Equal(t, 50.0, amount)
	})

	t.Run("never negative", func(t *testing.T) {
		amount, err := Calculate(active(TypeFixed, -5), 30, nil, nil, now)
		require.NoError(t, err)
		assert.Zero(t, amount)
	})

	t.Run("unknown type", func(t *testing.T) {
		amount, err := Calculate(active(DiscountType("bogus"), 10), 100, nil, nil, now)
		assert.Zero(t, amount)
		assert.Equal(t, "unknown discount type", reason(t, err))
	})
}

func TestCalculateIsPure(t *testing.T) {
	dc := active(TypePercentage, 10)
	dc.UsageLimit = ptrI(3)

	for i := 0; i < 10; i++ {
		amount, err := Calculate(dc, 200, nil, nil, now)
		require.NoError(t, err)
		assert.Equal(t, 20.0, amount)
	}
	assert.Zero(t, dc.UsedCount, "evaluation must never advance used_count")
}

func TestCodeGenerator(t *testing.T) {
	gen, err := NewCodeGenerator("test-salt", "sole")
	require.NoError(t, err)

	a, err := gen.Generate(1)
	require.NoError(t, err)
	b, err := gen.Generate(2)
	require.NoError(t, err)

	assert.True(t, len(a) >= len("SOLE-")+8)
	assert.Contains(t, a, "SOLE-")
	assert.NotEqual(t, a, b)

	// Deterministic per sequence.
	again, err := gen.Generate(1)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	for _, r := range a[len("SOLE-"):] {
		assert.Contains(t, codeAlphabet, string(r))
	}
}

func TestParseDiscountType(t *testing.T) {
	for _, s := range []string{"percentage", "fixed"} {
		_, err := ParseDiscountType(s)
		assert.NoError(t, err)
	}
	_, err := ParseDiscountType("bogo")
	assert.ErrorIs(t, err, ErrUnknownDiscountType)
}
