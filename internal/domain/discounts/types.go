package discounts

import (
	"errors"
	"fmt"
	"time"
)

type DiscountType string

const (
	TypePercentage DiscountType = "percentage"
	TypeFixed      DiscountType = "fixed"
)

var (
	ErrUnknownDiscountType = errors.New("unknown discount type")
	ErrCodeExists          = errors.New("discount code already exists")
)

// DiscountInvalidError carries the reason a code was rejected; the
// evaluator returns it with a zero amount for every rejection path.
type DiscountInvalidError struct {
	Reason string
}

func (e *DiscountInvalidError) Error() string {
	return "discount invalid: " + e.Reason
}

// DiscountCode as persisted. UsedCount is only ever advanced by Redeem,
// after checkout actually succeeds — never during evaluation.
type DiscountCode struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	Type          DiscountType `json:"type"`
	Value         float64      `json:"value"`
	MinimumAmount *float64     `json:"minimum_amount,omitempty"`
	UsageLimit    *int         `json:"usage_limit,omitempty"`
	UsedCount     int          `json:"used_count"`
	StartsAt      *time.Time   `json:"starts_at,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	IsActive      bool         `json:"is_active"`

	// Empty sets mean "applies to everything".
	ApplicableProducts   []int64  `json:"applicable_products,omitempty"`
	ApplicableCategories []string `json:"applicable_categories,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ParseDiscountType(s string) (DiscountType, error) {
	switch DiscountType(s) {
	case TypePercentage:
		return TypePercentage, nil
	case TypeFixed:
		return TypeFixed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDiscountType, s)
	}
}
