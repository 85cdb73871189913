package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/retroenv/nesrle/internal/expression"
	"github.com/retroenv/retrogolib/assert"
)

func TestBuiltin(t *testing.T) {
	catalog, err := Builtin()
	assert.NoError(t, err)
	assert.Equal(t, []string{"kemko", "konami", "konami2", "packbits", "ppu", "stripe"}, catalog.Keys())

	def, err := catalog.Lookup("KONAMI2")
	assert.NoError(t, err)
	assert.Equal(t, "konami2", def.Key())
	assert.Equal(t, "Konami RLE 2 (Life Force)", def.Name())
	assert.Equal(t, 7, def.Len())
	assert.Equal(t, []int{1, 4}, def.Discouraged())

	first := def.Operations()[0]
	assert.Equal(t, Address, first.Kind)
	assert.True(t, first.Start)
	assert.Equal(t, "address [0x00-0xFF 0x20-0x3F *]", first.String())

	stripe, err := catalog.Lookup("stripe")
	assert.NoError(t, err)
	assert.True(t, stripe.Operations()[2].NoBreak)
}

func TestLookupUnknownKey(t *testing.T) {
	catalog, err := Builtin()
	assert.NoError(t, err)

	_, err = catalog.Lookup("lzss")
	assert.True(t, errors.Is(err, ErrUnknownFormatKey))
	assert.ErrorContains(t, err, "konami")
}

func TestOperationMatches(t *testing.T) {
	op := Operation{
		Kind:  Repeat,
		Match: [LookaheadSize]Predicate{Between(0x01, 0x7E), Between(0x00, 0xFF)},
	}

	tests := []struct {
		name     string
		data     []byte
		atStart  bool
		expected bool
	}{
		{"in range", []byte{0x05, 0x41}, false, true},
		{"upper bound", []byte{0x7E, 0x00}, false, true},
		{"out of range", []byte{0x7F, 0x41}, false, false},
		{"missing operand byte", []byte{0x05}, false, false},
		{"empty input", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLookahead(tt.data, 0)
			assert.Equal(t, tt.expected, op.Matches(l, tt.atStart))
		})
	}

	op.Start = true
	l := NewLookahead([]byte{0x05, 0x41}, 0)
	assert.False(t, op.Matches(l, false))
	assert.True(t, op.Matches(l, true))
}

func TestWildcardMatchesAbsentByte(t *testing.T) {
	p := Any()
	assert.True(t, p.IsWildcard())
	assert.True(t, p.Matches(0, false))

	p = Exactly(0xFF)
	assert.False(t, p.Matches(0xFF, false))
	assert.True(t, p.Matches(0xFF, true))
}

func TestLookahead(t *testing.T) {
	l := NewLookahead([]byte{0x10, 0x20, 0x30, 0x40}, 2)
	value, ok := l.Byte(0)
	assert.True(t, ok)
	assert.Equal(t, byte(0x30), value)

	_, ok = l.Byte(2)
	assert.False(t, ok)
	assert.Equal(t, []int{0x30, 0x40}, l.Args())
}

func TestOperationEvaluate(t *testing.T) {
	op := Operation{
		Kind:     Repeat,
		Operands: []expression.Expr{expression.MustCompile("[1]"), expression.MustCompile("[0]-0xBF")},
		Size:     expression.MustCompile("2"),
		Step:     expression.MustCompile("32"),
	}

	result, err := op.Evaluate(NewLookahead([]byte{0xC3, 0x24}, 0))
	assert.NoError(t, err)
	assert.Equal(t, []int{0x24, 4}, result.Operands)
	assert.Equal(t, 2, result.Size)
	assert.Equal(t, 32, result.Step)

	_, err = op.Evaluate(NewLookahead([]byte{0xC3}, 0))
	assert.True(t, errors.Is(err, expression.ErrMalformedExpression))
}

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		text     string
		expected string
		wantErr  bool
	}{
		{"*", "*", false},
		{"0x7F", "0x7F", false},
		{"$20-$3F", "0x20-0x3F", false},
		{"0-255", "0x00-0xFF", false},
		{"0x80-0x10", "", true},
		{"0x100", "", true},
		{"zz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			p, err := ParsePredicate(tt.text)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidDefinition))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, p.String())
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "formats:\n  - key: a\n    colour: red\n"},
		{"no operations", "formats:\n  - key: a\n"},
		{"unknown kind", "formats:\n  - key: a\n    operations:\n      - kind: jump\n        size: \"1\"\n"},
		{"missing operands", "formats:\n  - key: a\n    operations:\n      - kind: repeat\n        size: \"1\"\n"},
		{"missing size", "formats:\n  - key: a\n    operations:\n      - kind: end\n"},
		{"no-break repeat", "formats:\n  - key: a\n    operations:\n      - kind: repeat\n        nobreak: true\n        format: \"1 1\"\n        size: \"1\"\n"},
		{"duplicate key", "formats:\n  - key: a\n    operations:\n      - kind: end\n        size: \"1\"\n  - key: A\n    operations:\n      - kind: end\n        size: \"1\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.yaml))
			assert.True(t, errors.Is(err, ErrInvalidDefinition))
		})
	}
}

func TestCatalogExtend(t *testing.T) {
	catalog, err := Builtin()
	assert.NoError(t, err)

	custom := "formats:\n  - name: Zero Fill\n    key: zero\n    operations:\n      - kind: repeat\n        match: [\"*\"]\n        format: \"0 [0]\"\n        size: \"1\"\n"
	definitions, err := Parse(strings.NewReader(custom))
	assert.NoError(t, err)

	extended, err := catalog.Extend(definitions...)
	assert.NoError(t, err)
	assert.Equal(t, len(catalog.Definitions())+1, len(extended.Definitions()))

	def, err := extended.Lookup("zero")
	assert.NoError(t, err)
	assert.Equal(t, "Zero Fill", def.Name())

	_, err = catalog.Lookup("zero")
	assert.True(t, errors.Is(err, ErrUnknownFormatKey))

	_, err = extended.Extend(definitions...)
	assert.True(t, errors.Is(err, ErrInvalidDefinition))
}

func TestOperationsCopy(t *testing.T) {
	catalog, err := Builtin()
	assert.NoError(t, err)
	def, err := catalog.Lookup("konami")
	assert.NoError(t, err)

	ops := def.Operations()
	ops[0].Kind = End
	assert.Equal(t, Repeat, def.Operations()[0].Kind)
}
