package main

import (
	"net/http"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"
)

type AddWishlistItemRequest struct {
	ProductID   int64  `json:"product_id" validate:"required,min=1"`
	SourceTable string `json:"source_table" validate:"required"`
	Variant     any    `json:"variant"`
}

type MoveToCartRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

func (app *application) getWishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	lines, err := app.wishlist.List(r.Context(), userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, lines); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) addWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	var req AddWishlistItemRequest
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

	line, err := app.wishlist.Add(r.Context(), userID, req.ProductID, table, variants.Normalize(req.Variant))
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, line); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) removeWishlistItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	itemID, err := parseItemID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.wishlist.Remove(r.Context(), userID, itemID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) clearWishlistHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	removed, err := app.wishlist.Clear(r.Context(), userID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{"removed": removed}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// moveToCartHandler moves one wishlist item into the cart atomically. When
// the cart insert is rejected, say the product ran out of stock, the item
// stays on the wishlist.
func (app *application) moveToCartHandler(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)

	itemID, err := parseItemID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	req := MoveToCartRequest{Quantity: 1}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &req); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		if err := Validate.Struct(req); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	line, err := app.wishlist.MoveToCart(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, line); err != nil {
		app.internalServerError(w, r, err)
	}
}
