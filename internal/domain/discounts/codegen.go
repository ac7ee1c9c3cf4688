package discounts

import (
	"fmt"
	"strings"

	"github.com/speps/go-hashids/v2"
)

// codeAlphabet avoids 0/O and 1/I so codes survive being read aloud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator mints short, human-friendly discount codes like
// "SOLE-7KQ2M9XW". Codes are deterministic per (salt, seq), so the same
// sequence never produces two different codes.
type CodeGenerator struct {
	h      *hashids.HashID
	prefix string
}

func NewCodeGenerator(salt, prefix string) (*CodeGenerator, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = 8
	data.Alphabet = codeAlphabet

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init code generator: %w", err)
	}
	return &CodeGenerator{h: h, prefix: strings.ToUpper(prefix)}, nil
}

func (g *CodeGenerator) Generate(seq int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{seq})
	if err != nil {
		return "", fmt.Errorf("encode discount code: %w", err)
	}
	code = strings.ToUpper(code)
	if g.prefix == "" {
		return code, nil
	}
	return g.prefix + "-" + code, nil
}
