package main

import (
	"errors"
	"net/http"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/discounts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/wishlist"
)

// stable machine-readable codes attached to every error envelope so
// clients can branch without parsing messages
const (
	codeBadRequest        = "bad_request"
	codeNotFound          = "not_found"
	codeProductNotFound   = "product_not_found"
	codeProductInactive   = "product_inactive"
	codeInsufficientStock = "insufficient_stock"
	codeItemNotFound      = "item_not_found"
	codeAlreadyInWishlist = "already_in_wishlist"
	codeDiscountInvalid   = "discount_invalid"
	codeConflict          = "conflict"
	codeUnauthorized      = "unauthorized"
	codeRateLimited       = "rate_limit_exceeded"
	codeInternal          = "internal_error"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, codeInternal, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusBadRequest, codeBadRequest, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusConflict, codeConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSONError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path, "ip", r.RemoteAddr)
	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded, retry after: "+retryAfter)
}

// domainErrorResponse maps the shared domain error taxonomy onto HTTP.
// Anything unrecognized falls through to a 500.
func (app *application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *carts.InsufficientStockError
	var discountErr *discounts.DiscountInvalidError

	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		writeJSONError(w, http.StatusNotFound, codeProductNotFound, "product not found")
	case errors.Is(err, catalog.ErrProductInactive):
		writeJSONError(w, http.StatusConflict, codeProductInactive, "product is not available")
	case errors.Is(err, catalog.ErrUnknownSourceTable), errors.Is(err, catalog.ErrUnknownTab):
		app.badRequestResponse(w, r, err)
	case errors.As(err, &stockErr):
		writeJSONErrorDetail(w, http.StatusConflict, codeInsufficientStock, stockErr.Error(), map[string]any{
			"available": stockErr.Available,
		})
	case errors.Is(err, carts.ErrInvalidQuantity):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, carts.ErrItemNotFound), errors.Is(err, wishlist.ErrItemNotFound):
		writeJSONError(w, http.StatusNotFound, codeItemNotFound, "item not found")
	case errors.Is(err, wishlist.ErrAlreadyInWishlist):
		writeJSONError(w, http.StatusConflict, codeAlreadyInWishlist, "product already in wishlist")
	case errors.As(err, &discountErr):
		writeJSONError(w, http.StatusUnprocessableEntity, codeDiscountInvalid, discountErr.Error())
	case errors.Is(err, discounts.ErrCodeExists):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
