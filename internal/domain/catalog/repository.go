package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Repository reads and writes the three segment tables through their
// capability descriptors and keeps the read-through cache consistent.
//
// Failure policy: read paths treat a per-table fault as "no results from
// that table" so a schema-drifted table degrades search and listing instead
// of breaking them; write paths never swallow faults.
type Repository struct {
	db     dbx.Querier
	cache  Cache
	logger *zap.SugaredLogger
}

func NewRepository(db dbx.Querier, cache Cache, logger *zap.SugaredLogger) *Repository {
	return &Repository{db: db, cache: cache, logger: logger}
}

// --- cache keys ---

func productKey(table SourceTable, id int64) string {
	return fmt.Sprintf("product:%s:%d", table, id)
}

func searchKey(tab Tab, query string, page, perPage int) string {
	return fmt.Sprintf("search:%s:%s:%d:%d", tab, query, page, perPage)
}

func listKey(tab Tab, page, perPage int, f ListFilters) string {
	min, max := "", ""
	if f.MinPrice != nil {
		min = fmt.Sprintf("%.2f", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		max = fmt.Sprintf("%.2f", *f.MaxPrice)
	}
	return fmt.Sprintf("list:%s:%d:%d:c=%s:b=%s:min=%s:max=%s:sort=%s",
		tab, page, perPage, f.Category, f.Brand, min, max, f.Sort)
}

func featuredKey(table SourceTable, limit int) string {
	return fmt.Sprintf("featured:%s:%d", table, limit)
}

// pageResult is the shape cached for search and listing reads.
type pageResult struct {
	Items      []Product  `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// --- single product lookup ---

// FindByID returns the product or nil when the row does not exist.
// Cache-first with a 30 minute TTL.
func (r *Repository) FindByID(ctx context.Context, id int64, table SourceTable) (*Product, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceTable, table)
	}

	key := productKey(table, id)
	var cached Product
	if hit := r.cacheGet(ctx, key, &cached); hit {
		return &cached, nil
	}

	ts := table.schema()
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, ts.selectList(), ts.name), id)

	p, err := scanProduct(row, table)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product %d in %s: %w", id, table, err)
	}

	r.cacheSet(ctx, key, p, productCacheTTL)
	return p, nil
}

// FindAcrossTables probes for a product whose source table is not reliably
// known: the preferred table first (when given), then the remaining tables
// in the fixed order. First hit wins.
func (r *Repository) FindAcrossTables(ctx context.Context, id int64, preferred *SourceTable) (*Product, error) {
	seen := make(map[SourceTable]bool, len(SourceTables))

	probe := make([]SourceTable, 0, len(SourceTables))
	if preferred != nil && preferred.Valid() {
		probe = append(probe, *preferred)
		seen[*preferred] = true
	}
	for _, t := range SourceTables {
		if !seen[t] {
			probe = append(probe, t)
		}
	}

	for _, t := range probe {
		p, err := r.FindByID(ctx, id, t)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}
	return nil, nil
}

// --- search ---

// Search matches the query as a substring of name, description, brand or
// category across the tab's tables. Per-table results are unioned in the
// fixed table order before pagination is applied, so page boundaries are
// stable across the merged set, not per table.
func (r *Repository) Search(ctx context.Context, query string, tab Tab, page, perPage int) ([]Product, Pagination, error) {
	page, perPage = clampPage(page, perPage)
	query = strings.TrimSpace(query)

	key := searchKey(tab, query, page, perPage)
	var cached pageResult
	if hit := r.cacheGet(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	pattern := "%" + query + "%"
	var merged []Product
	for _, t := range tab.tables() {
		ts := t.schema()

		match := "(name ILIKE $1 OR description ILIKE $1 OR category ILIKE $1"
		if ts.brandCol != "" {
			match += fmt.Sprintf(" OR %s ILIKE $1", ts.brandCol)
		}
		match += ")"

		q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s AND %s ORDER BY id ASC`,
			ts.selectList(), ts.name, ts.activeExpr(), match)

		items, err := r.queryProducts(ctx, t, q, pattern)
		if err != nil {
			r.logger.Warnw("search: segment table skipped", "table", t, "error", err)
			continue
		}
		merged = append(merged, items...)
	}

	items, pg := paginate(merged, page, perPage)
	r.cacheSet(ctx, key, pageResult{Items: items, Pagination: pg}, searchCacheTTL)
	return items, pg, nil
}

// --- tab listing ---

// ListByTab lists one segment table with filters and a sort key. For the
// "all" tab the per-table results are merged and sorted before pagination,
// same discipline as Search.
func (r *Repository) ListByTab(ctx context.Context, tab Tab, page, perPage int, f ListFilters) ([]Product, Pagination, error) {
	page, perPage = clampPage(page, perPage)

	key := listKey(tab, page, perPage, f)
	var cached pageResult
	if hit := r.cacheGet(ctx, key, &cached); hit {
		return cached.Items, cached.Pagination, nil
	}

	tables := tab.tables()

	var (
		items []Product
		pg    Pagination
	)
	if len(tables) == 1 {
		var err error
		items, pg, err = r.listOne(ctx, tables[0], page, perPage, f)
		if err != nil {
			r.logger.Warnw("list: segment table skipped", "table", tables[0], "error", err)
			items, pg = paginate(nil, page, perPage)
		}
	} else {
		var merged []Product
		for _, t := range tables {
			part, err := r.listAll(ctx, t, f)
			if err != nil {
				r.logger.Warnw("list: segment table skipped", "table", t, "error", err)
				continue
			}
			merged = append(merged, part...)
		}
		sortProducts(merged, f.Sort)
		items, pg = paginate(merged, page, perPage)
	}

	r.cacheSet(ctx, key, pageResult{Items: items, Pagination: pg}, listCacheTTL)
	return items, pg, nil
}

// listOne pages a single table in SQL, with the window-function total and a
// fallback count when the caller paged past the end.
func (r *Repository) listOne(ctx context.Context, t SourceTable, page, perPage int, f ListFilters) ([]Product, Pagination, error) {
	ts := t.schema()
	where, args, ok := ts.listWhere(f)
	if !ok {
		// The filter names a column this table does not have, e.g. a brand
		// filter against a table with no brand column. Nothing can match.
		items, pg := paginate(nil, page, perPage)
		return items, pg, nil
	}

	offset := (page - 1) * perPage
	q := fmt.Sprintf(`SELECT %s, COUNT(*) OVER() AS total_count
FROM %s
WHERE %s
ORDER BY %s
LIMIT $%d OFFSET $%d`,
		ts.selectList(), ts.name, where, sortExpr(f.Sort), len(args)+1, len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list %s: %w", t, err)
	}
	defer rows.Close()

	var (
		items []Product
		total int
	)
	for rows.Next() {
		p, err := scanProductWithTotal(rows, t, &total)
		if err != nil {
			return nil, Pagination{}, fmt.Errorf("scan %s row: %w", t, err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, Pagination{}, fmt.Errorf("list %s rows: %w", t, err)
	}

	if len(items) == 0 && offset > 0 {
		countQ := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, ts.name, where)
		if err := r.db.QueryRow(ctx, countQ, args[:len(args)-2]...).Scan(&total); err != nil {
			return nil, Pagination{}, fmt.Errorf("count %s: %w", t, err)
		}
	}

	return items, newPagination(page, perPage, total), nil
}

// listAll fetches every matching row of one table, for the merged "all" tab.
func (r *Repository) listAll(ctx context.Context, t SourceTable, f ListFilters) ([]Product, error) {
	ts := t.schema()
	where, args, ok := ts.listWhere(f)
	if !ok {
		return nil, nil
	}

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s`,
		ts.selectList(), ts.name, where, sortExpr(f.Sort))
	return r.queryProducts(ctx, t, q, args...)
}

// listWhere builds the filter predicate for one table. The third return is
// false when a requested filter has no column to match against.
func (ts tableSchema) listWhere(f ListFilters) (string, []any, bool) {
	where := []string{ts.activeExpr()}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" {
		where = append(where, "category = "+arg(f.Category))
	}
	if f.Brand != "" {
		if ts.brandCol == "" {
			return "", nil, false
		}
		where = append(where, ts.brandCol+" = "+arg(f.Brand))
	}
	if f.MinPrice != nil {
		where = append(where, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "price <= "+arg(*f.MaxPrice))
	}

	return strings.Join(where, " AND "), args, true
}

// --- featured ---

// ListFeatured returns the table's featured products. Tables without a
// featured column (the descriptors know which) fall back to the newest
// active rows instead of erroring on a column that is not there.
func (r *Repository) ListFeatured(ctx context.Context, table SourceTable, limit int) ([]Product, error) {
	if !table.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceTable, table)
	}
	if limit < 1 || limit > 50 {
		limit = 8
	}

	key := featuredKey(table, limit)
	var cached []Product
	if hit := r.cacheGet(ctx, key, &cached); hit {
		return cached, nil
	}

	ts := table.schema()
	where := ts.activeExpr()
	if ts.featuredCol != "" {
		where += " AND " + ts.featuredCol + " = true"
	}

	q := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY created_at DESC, id DESC LIMIT $1`,
		ts.selectList(), ts.name, where)

	items, err := r.queryProducts(ctx, table, q, limit)
	if err != nil {
		r.logger.Warnw("featured: segment table skipped", "table", table, "error", err)
		return nil, nil
	}

	r.cacheSet(ctx, key, items, featuredCacheTTL)
	return items, nil
}

// --- stock ledger ---

// UpdateStock is the only legal mutation path for the stock column. It
// writes the new quantity and synchronously invalidates the product entry
// plus every listing, search and featured entry before returning success.
// Coarse on purpose: correctness over cache-hit-rate.
func (r *Repository) UpdateStock(ctx context.Context, id int64, table SourceTable, newQuantity int) error {
	if !table.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSourceTable, table)
	}
	if newQuantity < 0 {
		return fmt.Errorf("stock quantity must not be negative, got %d", newQuantity)
	}

	ts := table.schema()
	tag, err := r.db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET %s = $1, updated_at = now() WHERE id = $2`, ts.name, ts.stockCol),
		newQuantity, id)
	if err != nil {
		return fmt.Errorf("update stock %s/%d: %w", table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	r.InvalidateProduct(ctx, id, table)
	return nil
}

// InvalidateProduct drops the product's cache entry and all derived listing
// entries. Cache faults are logged, not returned: the cache is advisory and
// the row is already written; the TTL bounds any residual staleness.
func (r *Repository) InvalidateProduct(ctx context.Context, id int64, table SourceTable) {
	if err := r.cache.Delete(ctx, productKey(table, id)); err != nil {
		r.logger.Errorw("cache invalidate product failed", "table", table, "id", id, "error", err)
	}
	for _, pattern := range []string{"search:*", "list:*", "featured:*"} {
		if err := r.cache.DeletePattern(ctx, pattern); err != nil {
			r.logger.Errorw("cache invalidate pattern failed", "pattern", pattern, "error", err)
		}
	}
}

// LockStock reads the live stock under a row lock inside the caller's
// transaction. Cart mutations take this lock before the stock check so the
// check-then-write window is serialized per product row.
func (r *Repository) LockStock(ctx context.Context, q dbx.Querier, id int64, table SourceTable) (int, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSourceTable, table)
	}

	ts := table.schema()
	var stock int
	err := q.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 FOR UPDATE`, ts.stockCol, ts.name),
		id).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("lock stock %s/%d: %w", table, id, err)
	}
	return stock, nil
}

// --- scanning and paging helpers ---

func (r *Repository) queryProducts(ctx context.Context, t SourceTable, q string, args ...any) ([]Product, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows, t)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func scanProduct(row pgx.Row, t SourceTable) (*Product, error) {
	p := Product{SourceTable: t}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.ImageURL,
		&p.Brand, &p.Category, &p.SKU, &p.StockQuantity, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProductWithTotal(row pgx.Row, t SourceTable, total *int) (*Product, error) {
	p := Product{SourceTable: t}
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.OriginalPrice, &p.ImageURL,
		&p.Brand, &p.Category, &p.SKU, &p.StockQuantity, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt, total,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func newPagination(page, perPage, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// paginate slices an already-merged result set. Search unions the per-table
// results first and pages second, so a page can straddle table boundaries.
func paginate(items []Product, page, perPage int) ([]Product, Pagination) {
	pg := newPagination(page, perPage, len(items))

	start := (page - 1) * perPage
	if start >= len(items) {
		return []Product{}, pg
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], pg
}

func sortExpr(key string) string {
	switch key {
	case "price_asc":
		return "price ASC, id ASC"
	case "price_desc":
		return "price DESC, id ASC"
	case "name":
		return "LOWER(name) ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// sortProducts applies the same ordering as sortExpr to a merged slice.
func sortProducts(items []Product, key string) {
	switch key {
	case "price_asc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	case "price_desc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price > items[j].Price })
	case "name":
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	}
}

// --- cache plumbing ---

// cacheGet is best-effort: a cache fault reads as a miss and is logged.
func (r *Repository) cacheGet(ctx context.Context, key string, dest any) bool {
	hit, err := r.cache.Get(ctx, key, dest)
	if err != nil {
		r.logger.Warnw("cache read failed", "key", key, "error", err)
		return false
	}
	return hit
}

func (r *Repository) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := r.cache.Set(ctx, key, value, ttl); err != nil {
		r.logger.Warnw("cache write failed", "key", key, "error", err)
	}
}
