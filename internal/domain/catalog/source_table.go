package catalog

import (
	"fmt"
	"strings"
)

// SourceTable identifies which of the three segment tables a product row
// lives in. A product id is only unique together with its source table.
//
// The set is closed: every query site resolves the physical schema through
// the descriptor table below, so adding a segment means adding a descriptor
// here, not sprinkling table-name strings through the SQL.
type SourceTable string

const (
	TableMen   SourceTable = "men"
	TableWomen SourceTable = "women"
	TableKids  SourceTable = "kids"
)

// SourceTables is the fixed probe order used whenever a row does not know
// its own source table.
var SourceTables = []SourceTable{TableMen, TableWomen, TableKids}

func ParseSourceTable(s string) (SourceTable, error) {
	switch SourceTable(strings.ToLower(strings.TrimSpace(s))) {
	case TableMen:
		return TableMen, nil
	case TableWomen:
		return TableWomen, nil
	case TableKids:
		return TableKids, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSourceTable, s)
	}
}

func (s SourceTable) Valid() bool {
	_, ok := schemas[s]
	return ok
}

func (s SourceTable) String() string { return string(s) }

// tableSchema describes the physical shape of one segment table. The three
// tables predate this service and drifted apart: they disagree on the stock
// column name, on how "active" is encoded, and on which optional columns
// exist at all. Everything the repository needs to know about that drift is
// captured here once, at compile time.
type tableSchema struct {
	name     string // physical table name
	stockCol string // stock_quantity | stock | quantity

	// activeCol is either a boolean column or, when activeIsStatus is set,
	// a text status column where "active" means live.
	activeCol      string
	activeIsStatus bool

	// Optional columns; empty string means the table does not have one.
	featuredCol string
	skuCol      string
	brandCol    string
}

var schemas = map[SourceTable]tableSchema{
	TableMen: {
		name:        "men_products",
		stockCol:    "stock_quantity",
		activeCol:   "is_active",
		featuredCol: "is_featured",
		skuCol:      "sku",
		brandCol:    "brand",
	},
	TableWomen: {
		name:           "women_products",
		stockCol:       "stock",
		activeCol:      "status",
		activeIsStatus: true,
		featuredCol:    "featured",
		brandCol:       "brand",
	},
	TableKids: {
		name:     "kids_products",
		stockCol: "quantity",
		activeCol: "is_active",
	},
}

func (s SourceTable) schema() tableSchema {
	sc, ok := schemas[s]
	if !ok {
		panic(fmt.Sprintf("catalog: no schema for source table %q", s))
	}
	return sc
}

// activeExpr returns a boolean SQL expression for "this row is live".
func (ts tableSchema) activeExpr() string {
	if ts.activeIsStatus {
		return fmt.Sprintf("(%s = 'active')", ts.activeCol)
	}
	return ts.activeCol
}

// selectList yields the normalized projection shared by every read query:
// whatever the physical table calls its columns, rows come back with the
// logical names (stock_quantity, is_active, sku, ...).
func (ts tableSchema) selectList() string {
	sku := "NULL::text AS sku"
	if ts.skuCol != "" {
		sku = ts.skuCol + " AS sku"
	}
	brand := "NULL::text AS brand"
	if ts.brandCol != "" {
		brand = ts.brandCol + " AS brand"
	}

	return fmt.Sprintf(`id,
	name,
	COALESCE(description, '') AS description,
	price,
	original_price,
	COALESCE(image_url, '') AS image_url,
	%s,
	category,
	%s,
	%s AS stock_quantity,
	%s AS is_active,
	created_at,
	updated_at`, brand, sku, ts.stockCol, ts.activeExpr())
}
