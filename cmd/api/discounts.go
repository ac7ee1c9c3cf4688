package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/discounts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/money"
)

type ValidateDiscountRequest struct {
	Code string `json:"code" validate:"required,min=4,max=32"`
}

type CreateDiscountRequest struct {
	Code                 string     `json:"code" validate:"omitempty,min=4,max=32"`
	Type                 string     `json:"type" validate:"required,oneof=percentage fixed"`
	Value                float64    `json:"value" validate:"required,gt=0"`
	MinimumAmount        *float64   `json:"minimum_amount" validate:"omitempty,gt=0"`
	UsageLimit           *int       `json:"usage_limit" validate:"omitempty,min=1"`
	StartsAt             *time.Time `json:"starts_at"`
	ExpiresAt            *time.Time `json:"expires_at"`
	ApplicableProducts   []int64    `json:"applicable_products"`
	ApplicableCategories []string   `json:"applicable_categories"`
}

// cartDiscountContext loads what the discount engine needs to judge a
// code against the user's current cart. Product lookups ride the catalog
// cache, the summary call just warmed it.
func (app *application) cartDiscountContext(ctx context.Context, userID int64) (total float64, productIDs []int64, categories []string, err error) {
	summary, err := app.carts.GetSummary(ctx, userID)
	if err != nil {
		return 0, nil, nil, err
	}

	seen := make(map[string]bool)
	for _, line := range summary.Items {
		productIDs = append(productIDs, line.ProductID)

		p, err := app.catalog.FindByID(ctx, line.ProductID, line.SourceTable)
		if err != nil {
			app.logger.Warnw("discount context: product lookup failed",
				"product", line.ProductID, "table", line.SourceTable, "error", err)
			continue
		}
		if p == nil || p.Category == nil {
			continue
		}
		if !seen[*p.Category] {
			seen[*p.Category] = true
			categories = append(categories, *p.Category)
		}
	}
	return summary.TotalPrice, productIDs, categories, nil
}

func (app *application) validateDiscountHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	var req ValidateDiscountRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	total, productIDs, categories, err := app.cartDiscountContext(r.Context(), userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	amount, err := app.discounts.Validate(r.Context(), req.Code, total, productIDs, categories)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"code":            req.Code,
		"discount_amount": amount,
		"cart_total":      total,
		"payable_total":   money.Round2(total - amount),
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// redeemDiscountHandler burns one use of the code after re-validating it
// against the cart. Called by the checkout service once payment is
// authorized.
func (app *application) redeemDiscountHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	var req ValidateDiscountRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	total, productIDs, categories, err := app.cartDiscountContext(r.Context(), userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	amount, err := app.discounts.Validate(r.Context(), req.Code, total, productIDs, categories)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.discounts.Redeem(r.Context(), req.Code); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"code":            req.Code,
		"discount_amount": amount,
		"payable_total":   money.Round2(total - amount),
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) createDiscountHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateDiscountRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	dtype, err := discounts.ParseDiscountType(req.Type)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if dtype == discounts.TypePercentage && req.Value > 100 {
		app.badRequestResponse(w, r, fmt.Errorf("percentage value cannot exceed 100"))
		return
	}

	dc, err := app.discounts.Create(r.Context(), &discounts.DiscountCode{
		Code:                 req.Code,
		Type:                 dtype,
		Value:                req.Value,
		MinimumAmount:        req.MinimumAmount,
		UsageLimit:           req.UsageLimit,
		StartsAt:             req.StartsAt,
		ExpiresAt:            req.ExpiresAt,
		IsActive:             true,
		ApplicableProducts:   req.ApplicableProducts,
		ApplicableCategories: req.ApplicableCategories,
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, dc); err != nil {
		app.internalServerError(w, r, err)
	}
}
