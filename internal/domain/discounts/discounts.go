// Package discounts evaluates discount codes against live cart state.
// Evaluation is a pure function; redemption accounting is a separate,
// explicit write made only after checkout succeeds.
package discounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/infra/dbx"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/money"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Calculate returns the discount amount for the given cart state, or zero
// with a DiscountInvalidError naming the first rule the code failed.
//
// Rules, in order: active + validity window + usage limit, then minimum
// order amount, then product/category applicability (empty sets apply to
// all), then the amount itself — percentage rounded to 2 decimals, fixed
// capped at the order total, never negative.
func Calculate(dc *DiscountCode, totalAmount float64, productIDs []int64, categories []string, now time.Time) (float64, error) {
	if dc == nil {
		return 0, &DiscountInvalidError{Reason: "unknown code"}
	}
	if !dc.IsActive {
		return 0, &DiscountInvalidError{Reason: "code is disabled"}
	}
	if dc.StartsAt != nil && now.Before(*dc.StartsAt) {
		return 0, &DiscountInvalidError{Reason: "code is not active yet"}
	}
	if dc.ExpiresAt != nil && now.After(*dc.ExpiresAt) {
		return 0, &DiscountInvalidError{Reason: "code has expired"}
	}
	if dc.UsageLimit != nil && dc.UsedCount >= *dc.UsageLimit {
		return 0, &DiscountInvalidError{Reason: "usage limit reached"}
	}

	if dc.MinimumAmount != nil && totalAmount < *dc.MinimumAmount {
		return 0, &DiscountInvalidError{
			Reason: fmt.Sprintf("order total below minimum of %.2f", *dc.MinimumAmount),
		}
	}

	if !applies(dc, productIDs, categories) {
		return 0, &DiscountInvalidError{Reason: "code does not apply to these items"}
	}

	var amount float64
	switch dc.Type {
	case TypePercentage:
		amount = money.Round2(totalAmount * dc.Value / 100)
	case TypeFixed:
		amount = money.Round2(min(dc.Value, totalAmount))
	default:
		return 0, &DiscountInvalidError{Reason: "unknown discount type"}
	}

	if amount < 0 {
		amount = 0
	}
	return amount, nil
}

// applies checks product/category applicability. Both sets empty means the
// code is unrestricted; otherwise any overlap on either axis qualifies.
func applies(dc *DiscountCode, productIDs []int64, categories []string) bool {
	if len(dc.ApplicableProducts) == 0 && len(dc.ApplicableCategories) == 0 {
		return true
	}

	for _, want := range dc.ApplicableProducts {
		for _, got := range productIDs {
			if want == got {
				return true
			}
		}
	}
	for _, want := range dc.ApplicableCategories {
		for _, got := range categories {
			if want == got {
				return true
			}
		}
	}
	return false
}

// Repository persists discount codes.
type Repository struct {
	db  dbx.Querier
	gen *CodeGenerator
}

func NewRepository(db dbx.Querier, gen *CodeGenerator) *Repository {
	return &Repository{db: db, gen: gen}
}

const discountColumns = `id, code, type, value, minimum_amount, usage_limit, used_count,
	starts_at, expires_at, is_active, applicable_products, applicable_categories,
	created_at, updated_at`

// GetByCode returns nil (not an error) when no such code exists; the
// evaluator maps that to "unknown code".
func (r *Repository) GetByCode(ctx context.Context, code string) (*DiscountCode, error) {
	dc := &DiscountCode{}
	var rawType string
	err := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM discount_codes WHERE code = $1`, discountColumns), code).
		Scan(
			&dc.ID, &dc.Code, &rawType, &dc.Value, &dc.MinimumAmount, &dc.UsageLimit, &dc.UsedCount,
			&dc.StartsAt, &dc.ExpiresAt, &dc.IsActive, &dc.ApplicableProducts, &dc.ApplicableCategories,
			&dc.CreatedAt, &dc.UpdatedAt,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get discount code: %w", err)
	}

	if dc.Type, err = ParseDiscountType(rawType); err != nil {
		return nil, fmt.Errorf("discount code %q: %w", code, err)
	}
	return dc, nil
}

// Validate fetches the code and evaluates it against the supplied cart
// state. Read-only; UsedCount is untouched.
func (r *Repository) Validate(ctx context.Context, code string, totalAmount float64, productIDs []int64, categories []string) (float64, error) {
	dc, err := r.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	return Calculate(dc, totalAmount, productIDs, categories, time.Now())
}

// Redeem advances used_count once, conditionally, so two concurrent
// checkouts cannot both consume the last use of a limited code. Called
// only after checkout has actually succeeded.
func (r *Repository) Redeem(ctx context.Context, code string) error {
	tag, err := r.db.Exec(ctx, `
UPDATE discount_codes
SET used_count = used_count + 1,
    updated_at = now()
WHERE code = $1
  AND is_active = true
  AND (usage_limit IS NULL OR used_count < usage_limit)
`, code)
	if err != nil {
		return fmt.Errorf("redeem discount code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &DiscountInvalidError{Reason: "code can no longer be redeemed"}
	}
	return nil
}

// Create inserts an admin-authored code. When dc.Code is empty a
// human-friendly one is minted from the generator.
func (r *Repository) Create(ctx context.Context, dc *DiscountCode) (*DiscountCode, error) {
	if _, err := ParseDiscountType(string(dc.Type)); err != nil {
		return nil, err
	}
	if dc.Code == "" {
		if r.gen == nil {
			return nil, errors.New("create discount code: no code given and no generator configured")
		}
		code, err := r.gen.Generate(time.Now().UnixNano())
		if err != nil {
			return nil, fmt.Errorf("generate discount code: %w", err)
		}
		dc.Code = code
	}

	err := r.db.QueryRow(ctx, `
INSERT INTO discount_codes
  (code, type, value, minimum_amount, usage_limit, starts_at, expires_at, is_active,
   applicable_products, applicable_categories)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, used_count, created_at, updated_at
`, dc.Code, string(dc.Type), dc.Value, dc.MinimumAmount, dc.UsageLimit,
		dc.StartsAt, dc.ExpiresAt, dc.IsActive, dc.ApplicableProducts, dc.ApplicableCategories).
		Scan(&dc.ID, &dc.UsedCount, &dc.CreatedAt, &dc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", ErrCodeExists, dc.Code)
		}
		return nil, fmt.Errorf("create discount code: %w", err)
	}
	return dc, nil
}
