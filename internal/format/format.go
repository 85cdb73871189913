// Package format contains the declarative descriptions of the supported
// compression formats and the catalog they are looked up in.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/retroenv/nesrle/internal/expression"
)

var (
	// ErrUnknownFormatKey is returned when a format key is not part of a catalog.
	ErrUnknownFormatKey = errors.New("unknown format key")
	// ErrInvalidDefinition is returned for inconsistent format definitions.
	ErrInvalidDefinition = errors.New("invalid format definition")
)

var defaultStep = expression.MustCompile("1")

// Definition describes one compression format as an ordered list of
// operations. The first operation in list order that matches wins.
type Definition struct {
	name       string
	key        string
	operations []Operation
}

// NewDefinition returns a validated definition. The operations are copied,
// a missing address step defaults to 1.
func NewDefinition(name, key string, operations []Operation) (*Definition, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: format '%s' has no key", ErrInvalidDefinition, name)
	}
	if len(operations) == 0 {
		return nil, fmt.Errorf("%w: format '%s' has no operations", ErrInvalidDefinition, key)
	}

	ops := make([]Operation, len(operations))
	copy(ops, operations)
	for i := range ops {
		op := &ops[i]
		if op.Step == nil {
			op.Step = defaultStep
		}
		op.Operands = append([]expression.Expr(nil), op.Operands...)
		if err := op.validate(); err != nil {
			return nil, fmt.Errorf("format '%s' operation %d: %w", key, i, err)
		}
	}

	return &Definition{
		name:       name,
		key:        key,
		operations: ops,
	}, nil
}

// Name returns the display name of the format.
func (d *Definition) Name() string {
	return d.name
}

// Key returns the short key the format is looked up by.
func (d *Definition) Key() string {
	return d.key
}

// Len returns the number of operations.
func (d *Definition) Len() int {
	return len(d.operations)
}

// Operations returns a copy of the operation list in match order.
func (d *Definition) Operations() []Operation {
	ops := make([]Operation, len(d.operations))
	copy(ops, d.operations)
	return ops
}

// Discouraged returns the indexes of all operations flagged as discouraged.
func (d *Definition) Discouraged() []int {
	var indexes []int
	for i := range d.operations {
		if d.operations[i].Discouraged {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Catalog is an immutable ordered collection of format definitions.
type Catalog struct {
	definitions []*Definition
	keys        map[string]*Definition
}

// NewCatalog returns a catalog of the given definitions in the given order.
// Keys are compared case insensitive and have to be unique.
func NewCatalog(definitions ...*Definition) (*Catalog, error) {
	c := &Catalog{
		keys: make(map[string]*Definition, len(definitions)),
	}
	for _, def := range definitions {
		key := strings.ToLower(def.key)
		if _, ok := c.keys[key]; ok {
			return nil, fmt.Errorf("%w: duplicate format key '%s'", ErrInvalidDefinition, def.key)
		}
		c.keys[key] = def
		c.definitions = append(c.definitions, def)
	}
	return c, nil
}

// Extend returns a new catalog that contains the definitions of c followed by
// the given definitions.
func (c *Catalog) Extend(definitions ...*Definition) (*Catalog, error) {
	all := make([]*Definition, 0, len(c.definitions)+len(definitions))
	all = append(all, c.definitions...)
	all = append(all, definitions...)
	return NewCatalog(all...)
}

// Lookup returns the definition for the case insensitive key.
func (c *Catalog) Lookup(key string) (*Definition, error) {
	def, ok := c.keys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("%w '%s', valid keys: %s", ErrUnknownFormatKey, key, strings.Join(c.Keys(), ", "))
	}
	return def, nil
}

// Definitions returns all definitions in catalog order.
func (c *Catalog) Definitions() []*Definition {
	return append([]*Definition(nil), c.definitions...)
}

// Keys returns the sorted keys of all definitions.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.definitions))
	for _, def := range c.definitions {
		keys = append(keys, def.key)
	}
	sort.Strings(keys)
	return keys
}
