package variants

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want Variant
	}{
		{"nil", nil, Variant{}},
		{"empty string", "", Variant{}},
		{"json null string", "null", Variant{}},
		{"plain color string", "Red", Variant{Color: "Red"}},
		{"padded plain string", "  Navy Blue ", Variant{Color: "Navy Blue"}},
		{"quoted string", `"Red"`, Variant{Color: "Red"}},
		{
			"json object color and size",
			`{"color":"Red","size":"9"}`,
			Variant{Color: "Red", Size: "9"},
		},
		{
			"json object legacy name key",
			`{"name":"Forest Green"}`,
			Variant{Color: "Forest Green"},
		},
		{
			"json object numeric size",
			`{"color":"Black","size":9.5}`,
			Variant{Color: "Black", Size: "9.5"},
		},
		{
			"json object size only",
			`{"size":"42"}`,
			Variant{Size: "42"},
		},
		{"raw message", json.RawMessage(`{"color":"White"}`), Variant{Color: "White"}},
		{"byte slice", []byte(`{"color":"Tan","size":"8"}`), Variant{Color: "Tan", Size: "8"}},
		{
			"map string any",
			map[string]any{"color": "Red", "size": "10"},
			Variant{Color: "Red", Size: "10"},
		},
		{
			"map string string",
			map[string]string{"color": "Grey"},
			Variant{Color: "Grey"},
		},
		{"typed variant", Variant{Color: " Red ", Size: "9 "}, Variant{Color: "Red", Size: "9"}},
		{"typed pointer", &Variant{Color: "Blue"}, Variant{Color: "Blue"}},
		{"nil pointer", (*Variant)(nil), Variant{}},
		// Unparseable input keeps the raw string on the color axis.
		{"malformed json object", `{"color":`, Variant{Color: `{"color":`}},
		{"unsupported type", 42, Variant{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.raw))
		})
	}
}

func TestNormalizeIsSharedDedupKey(t *testing.T) {
	// A cart add with a JSON payload and a wishlist add with a typed variant
	// must land on the same canonical pair.
	a := Normalize(`{"color":"Red","size":"9"}`)
	b := Normalize(Variant{Color: "Red", Size: "9"})
	assert.True(t, a.Equal(b))
	assert.Equal(t, a, b)
}

func TestVariantEqual(t *testing.T) {
	assert.True(t, Variant{Color: "Red "}.Equal(Variant{Color: " Red"}))
	assert.False(t, Variant{Color: "Red"}.Equal(Variant{Color: "red"}), "case is preserved")
	assert.False(t, Variant{Color: "Red", Size: "9"}.Equal(Variant{Color: "Red"}))
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "Red / 9", Variant{Color: "Red", Size: "9"}.String())
	assert.Equal(t, "Red", Variant{Color: "Red"}.String())
	assert.Equal(t, "9", Variant{Size: "9"}.String())
	assert.Equal(t, "", Variant{}.String())
}
