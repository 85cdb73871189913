package format

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/nesrle/internal/expression"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

type catalogFile struct {
	Formats []formatEntry `yaml:"formats"`
}

type formatEntry struct {
	Name       string           `yaml:"name"`
	Key        string           `yaml:"key"`
	Operations []operationEntry `yaml:"operations"`
}

type operationEntry struct {
	Kind        string   `yaml:"kind"`
	Match       []string `yaml:"match"`
	Start       bool     `yaml:"start"`
	NoBreak     bool     `yaml:"nobreak"`
	Discouraged bool     `yaml:"discouraged"`
	Format      string   `yaml:"format"`
	Size        string   `yaml:"size"`
	Step        string   `yaml:"step"`
	Note        string   `yaml:"note"`
}

// Builtin returns a new catalog containing the built-in formats.
func Builtin() (*Catalog, error) {
	return Load(bytes.NewReader(builtinCatalog))
}

// Load parses a catalog from a YAML document.
func Load(r io.Reader) (*Catalog, error) {
	definitions, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return NewCatalog(definitions...)
}

// Parse parses the format definitions of a YAML document.
func Parse(r io.Reader) ([]*Definition, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var file catalogFile
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decoding catalog: %v", ErrInvalidDefinition, err)
	}

	definitions := make([]*Definition, 0, len(file.Formats))
	for _, entry := range file.Formats {
		def, err := entry.definition()
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, def)
	}
	return definitions, nil
}

func (f formatEntry) definition() (*Definition, error) {
	operations := make([]Operation, 0, len(f.Operations))
	for i, entry := range f.Operations {
		op, err := entry.operation()
		if err != nil {
			return nil, fmt.Errorf("format '%s' operation %d: %w", f.Key, i, err)
		}
		operations = append(operations, op)
	}

	name := f.Name
	if name == "" {
		name = f.Key
	}
	return NewDefinition(name, f.Key, operations)
}

func (o operationEntry) operation() (Operation, error) {
	kind, err := ParseKind(o.Kind)
	if err != nil {
		return Operation{}, err
	}

	op := Operation{
		Kind:        kind,
		Start:       o.Start,
		NoBreak:     o.NoBreak,
		Discouraged: o.Discouraged,
		Note:        o.Note,
	}

	if len(o.Match) > LookaheadSize {
		return Operation{}, fmt.Errorf("%w: %d match predicates, at most %d supported",
			ErrInvalidDefinition, len(o.Match), LookaheadSize)
	}
	for i, text := range o.Match {
		if op.Match[i], err = ParsePredicate(text); err != nil {
			return Operation{}, err
		}
	}

	for _, field := range strings.Fields(o.Format) {
		operand, err := compileTemplate(field)
		if err != nil {
			return Operation{}, fmt.Errorf("format template: %w", err)
		}
		op.Operands = append(op.Operands, operand)
	}

	if op.Size, err = compileTemplate(o.Size); err != nil {
		return Operation{}, fmt.Errorf("size template: %w", err)
	}
	if o.Step != "" {
		if op.Step, err = compileTemplate(o.Step); err != nil {
			return Operation{}, fmt.Errorf("step template: %w", err)
		}
	}
	return op, nil
}

func compileTemplate(text string) (expression.Expr, error) {
	expr, err := expression.Compile(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return expr, nil
}

// ParsePredicate parses a lookahead predicate: "*" for a wildcard, a single
// byte value or a closed range written as "min-max".
func ParsePredicate(text string) (Predicate, error) {
	text = strings.TrimSpace(text)
	if text == "*" || text == "" {
		return Any(), nil
	}

	lowText, highText, isRange := strings.Cut(text, "-")
	low, err := parseByte(lowText)
	if err != nil {
		return Predicate{}, err
	}
	if !isRange {
		return Exactly(low), nil
	}

	high, err := parseByte(highText)
	if err != nil {
		return Predicate{}, err
	}
	if low > high {
		return Predicate{}, fmt.Errorf("%w: empty predicate range '%s'", ErrInvalidDefinition, text)
	}
	return Between(low, high), nil
}

func parseByte(text string) (byte, error) {
	value, err := expression.Evaluate(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if value < 0 || value > 0xFF {
		return 0, fmt.Errorf("%w: predicate value %d is not a byte", ErrInvalidDefinition, value)
	}
	return byte(value), nil
}
