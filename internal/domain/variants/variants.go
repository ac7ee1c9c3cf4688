// Package variants canonicalizes the (color, size) selection attached to cart
// and wishlist lines. Historical clients sent the selection in several shapes
// (plain string, JSON-encoded object, structured object); both the cart and
// the wishlist paths normalize through this package so their dedup semantics
// stay identical.
package variants

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Variant is the normalized (color, size) pair. An empty string means the
// axis was not selected; it is stored as '' rather than NULL so the
// per-variant uniqueness index behaves.
type Variant struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// Equal compares two variants after trimming. Case is preserved on purpose:
// "Red" and "red" are distinct catalog values.
func (v Variant) Equal(o Variant) bool {
	return strings.TrimSpace(v.Color) == strings.TrimSpace(o.Color) &&
		strings.TrimSpace(v.Size) == strings.TrimSpace(o.Size)
}

// IsZero reports whether neither axis is set.
func (v Variant) IsZero() bool {
	return v.Color == "" && v.Size == ""
}

func (v Variant) String() string {
	switch {
	case v.Color != "" && v.Size != "":
		return v.Color + " / " + v.Size
	case v.Color != "":
		return v.Color
	default:
		return v.Size
	}
}

// Normalize converts any of the legacy encodings into a Variant:
//
//   - Variant / *Variant: passed through (trimmed)
//   - map with "color"/"name" and/or "size" keys
//   - JSON-encoded object in a string, same keys
//   - plain string: treated as the color axis
//
// Normalize never fails; input it cannot interpret falls back to the raw
// string on the color axis.
func Normalize(raw any) Variant {
	switch val := raw.(type) {
	case nil:
		return Variant{}
	case Variant:
		return trim(val)
	case *Variant:
		if val == nil {
			return Variant{}
		}
		return trim(*val)
	case map[string]any:
		return fromMap(val)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return fromMap(m)
	case json.RawMessage:
		return fromString(string(val))
	case []byte:
		return fromString(string(val))
	case string:
		return fromString(val)
	default:
		return Variant{}
	}
}

func fromString(s string) Variant {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return Variant{}
	}

	// Serialized-object encoding from older clients.
	if strings.HasPrefix(s, "{") {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return fromMap(m)
		}
	}

	// Quoted plain string ("\"Red\"").
	if strings.HasPrefix(s, `"`) {
		var plain string
		if err := json.Unmarshal([]byte(s), &plain); err == nil {
			return Variant{Color: strings.TrimSpace(plain)}
		}
	}

	// Unparseable input keeps the raw value on the color axis.
	return Variant{Color: s}
}

func fromMap(m map[string]any) Variant {
	var v Variant
	if c, ok := stringField(m, "color"); ok {
		v.Color = c
	} else if n, ok := stringField(m, "name"); ok {
		// Legacy payloads carried the color under "name".
		v.Color = n
	}
	if s, ok := stringField(m, "size"); ok {
		v.Size = s
	}
	return trim(v)
}

func stringField(m map[string]any, key string) (string, bool) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", false
	}
	switch val := raw.(type) {
	case string:
		return val, true
	case float64:
		// Shoe sizes arrive as bare JSON numbers from some clients.
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	default:
		return "", false
	}
}

func trim(v Variant) Variant {
	v.Color = strings.TrimSpace(v.Color)
	v.Size = strings.TrimSpace(v.Size)
	return v
}
