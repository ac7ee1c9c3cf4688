package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"

	"github.com/go-chi/chi/v5"
)

func parseProductID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product ID")
	}
	return id, nil
}

func parsePageParams(r *http.Request) (page, perPage int, err error) {
	page = 1
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("invalid page parameter")
		}
	}
	perPage = 20
	if v := r.URL.Query().Get("per_page"); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil || perPage < 1 {
			return 0, 0, fmt.Errorf("invalid per_page parameter")
		}
	}
	return page, perPage, nil
}

func parsePriceParam(r *http.Request, name string) (*float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return nil, fmt.Errorf("invalid %s parameter", name)
	}
	return &f, nil
}

// getProductHandler serves GET /products/{productID}. A `table` query
// param pins the lookup to one segment table; without it every segment is
// probed in a fixed order.
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var product *catalog.Product
	if raw := r.URL.Query().Get("table"); raw != "" {
		table, err := catalog.ParseSourceTable(raw)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		product, err = app.catalog.FindByID(r.Context(), id, table)
		if err != nil {
			app.domainErrorResponse(w, r, err)
			return
		}
	} else {
		product, err = app.catalog.FindAcrossTables(r.Context(), id, nil)
		if err != nil {
			app.domainErrorResponse(w, r, err)
			return
		}
	}

	if product == nil {
		writeJSONError(w, http.StatusNotFound, codeProductNotFound, "product not found")
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) searchProductsHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		app.badRequestResponse(w, r, fmt.Errorf("q parameter is required"))
		return
	}

	tab := catalog.TabAll
	if raw := r.URL.Query().Get("tab"); raw != "" {
		var err error
		if tab, err = catalog.ParseTab(raw); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	page, perPage, err := parsePageParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	items, pagination, err := app.catalog.Search(r.Context(), query, tab, page, perPage)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := map[string]any{
		"items":      items,
		"pagination": pagination,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	tab := catalog.TabAll
	if raw := r.URL.Query().Get("tab"); raw != "" {
		var err error
		if tab, err = catalog.ParseTab(raw); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	page, perPage, err := parsePageParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	minPrice, err := parsePriceParam(r, "min_price")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	maxPrice, err := parsePriceParam(r, "max_price")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	filters := catalog.ListFilters{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Brand:    strings.TrimSpace(r.URL.Query().Get("brand")),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     r.URL.Query().Get("sort"),
	}

	items, pagination, err := app.catalog.ListByTab(r.Context(), tab, page, perPage, filters)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	resp := map[string]any{
		"items":      items,
		"pagination": pagination,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) featuredProductsHandler(w http.ResponseWriter, r *http.Request) {
	table := catalog.TableMen
	if raw := r.URL.Query().Get("table"); raw != "" {
		var err error
		if table, err = catalog.ParseSourceTable(raw); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	limit := 8
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > 50 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid limit parameter"))
			return
		}
	}

	items, err := app.catalog.ListFeatured(r.Context(), table, limit)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, items); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateStockRequest struct {
	SourceTable string `json:"source_table" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=0"`
}

// updateStockHandler is the ops-facing write used by the inventory sync
// job. A successful update synchronously drops the product's cache entries.
func (app *application) updateStockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var req UpdateStockRequest
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

	if err := app.catalog.UpdateStock(r.Context(), id, table, req.Quantity); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"product_id":     id,
		"source_table":   table,
		"stock_quantity": req.Quantity,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
