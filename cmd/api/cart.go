package main

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"

	"github.com/go-chi/chi/v5"
)

type AddCartItemRequest struct {
	ProductID   int64  `json:"product_id" validate:"required,min=1"`
	SourceTable string `json:"source_table" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	// Variant is free-form on the wire, older app builds send a JSON
	// string instead of an object.
	Variant any `json:"variant"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func parseItemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item ID")
	}
	return id, nil
}

func (app *application) getCartHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	summary, err := app.carts.GetSummary(r.Context(), userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, summary); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) addCartItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	var req AddCartItemRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	table, err := catalog.ParseSourceTable(req.SourceTable)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	line, err := app.carts.AddToCart(r.Context(), userID, carts.AddItemInput{
		ProductID:   req.ProductID,
		SourceTable: table,
		Quantity:    req.Quantity,
		Variant:     variants.Normalize(req.Variant),
	})
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, line); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	itemID, err := parseItemID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req UpdateCartItemRequest
	if err := readJSON(w, r, &req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(req); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	line, err := app.carts.UpdateItem(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, line); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	itemID, err := parseItemID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.carts.RemoveItem(r.Context(), userID, itemID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	removed, err := app.carts.Clear(r.Context(), userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{"removed": removed}); err != nil {
		app.internalServerError(w, r, err)
	}
}
