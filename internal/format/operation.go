package format

import (
	"fmt"
	"strings"

	"github.com/retroenv/nesrle/internal/expression"
)

// Kind is the effect an operation has on the output image.
type Kind int

// Operation kinds.
const (
	Address Kind = iota // set the output address
	Repeat              // write one value a number of times
	Copy                // copy literal bytes from the input
	End                 // end of the compressed stream
)

var kindNames = map[Kind]string{
	Address: "address",
	Repeat:  "repeat",
	Copy:    "copy",
	End:     "end",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// operandCount returns the number of values the format template of an
// operation of this kind has to produce.
func (k Kind) operandCount() int {
	switch k {
	case Address:
		return 1
	case Repeat, Copy:
		return 2
	default:
		return 0
	}
}

// ParseKind returns the kind for the given name.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for kind, kindName := range kindNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operation kind '%s'", ErrInvalidDefinition, name)
}

// LookaheadSize is the number of input bytes an operation can inspect.
const LookaheadSize = 3

// Lookahead holds the input bytes at the decode cursor. Bytes past the end of
// the input are absent and only match wildcard predicates.
type Lookahead struct {
	values [LookaheadSize]byte
	count  int
}

// NewLookahead returns the lookahead bytes of data at the given position.
func NewLookahead(data []byte, position int) Lookahead {
	var l Lookahead
	for i := 0; i < LookaheadSize; i++ {
		index := position + i
		if index < 0 || index >= len(data) {
			break
		}
		l.values[i] = data[index]
		l.count++
	}
	return l
}

// Byte returns the lookahead byte at index i and whether it is present.
func (l Lookahead) Byte(i int) (byte, bool) {
	if i < 0 || i >= l.count {
		return 0, false
	}
	return l.values[i], true
}

// Args returns the present lookahead bytes as template arguments. A template
// referring to an absent byte fails to evaluate.
func (l Lookahead) Args() []int {
	args := make([]int, l.count)
	for i := range args {
		args[i] = int(l.values[i])
	}
	return args
}

// Predicate matches a single lookahead byte against a closed range.
// The zero value is a wildcard that matches anything, including an absent byte.
type Predicate struct {
	low, high byte
	bounded   bool
}

// Any returns a wildcard predicate.
func Any() Predicate {
	return Predicate{}
}

// Between returns a predicate matching bytes in the closed range low..high.
func Between(low, high byte) Predicate {
	return Predicate{low: low, high: high, bounded: true}
}

// Exactly returns a predicate matching a single byte value.
func Exactly(value byte) Predicate {
	return Between(value, value)
}

// IsWildcard returns whether the predicate matches everything.
func (p Predicate) IsWildcard() bool {
	return !p.bounded
}

// Matches returns whether the predicate accepts the byte, present is false
// for a byte past the end of the input.
func (p Predicate) Matches(value byte, present bool) bool {
	if !p.bounded {
		return true
	}
	return present && value >= p.low && value <= p.high
}

func (p Predicate) String() string {
	switch {
	case !p.bounded:
		return "*"
	case p.low == p.high:
		return fmt.Sprintf("0x%02X", p.low)
	default:
		return fmt.Sprintf("0x%02X-0x%02X", p.low, p.high)
	}
}

// Operation is a single rule of a format decode table.
type Operation struct {
	Kind  Kind
	Match [LookaheadSize]Predicate

	Start       bool // only matches at the first cursor position of a decode run
	NoBreak     bool // address operations continue the operation scan after firing
	Discouraged bool // decodable but unreliable in real world data

	Operands []expression.Expr // values produced by the format template
	Size     expression.Expr   // number of input bytes consumed
	Step     expression.Expr   // output address increment per written byte

	Note string
}

// Matches returns whether the operation applies to the lookahead bytes.
func (o *Operation) Matches(l Lookahead, atStart bool) bool {
	if o.Start && !atStart {
		return false
	}
	for i, predicate := range o.Match {
		value, present := l.Byte(i)
		if !predicate.Matches(value, present) {
			return false
		}
	}
	return true
}

// Evaluated contains the template results of an operation for one set of
// lookahead bytes.
type Evaluated struct {
	Operands []int
	Size     int
	Step     int
}

// Evaluate computes the operands, size and address step of the operation.
func (o *Operation) Evaluate(l Lookahead) (Evaluated, error) {
	args := l.Args()
	result := Evaluated{
		Operands: make([]int, len(o.Operands)),
	}

	for i, operand := range o.Operands {
		value, err := operand.Eval(args)
		if err != nil {
			return Evaluated{}, fmt.Errorf("evaluating operand %d of %s operation: %w", i, o.Kind, err)
		}
		result.Operands[i] = value
	}

	var err error
	result.Size, err = o.Size.Eval(args)
	if err != nil {
		return Evaluated{}, fmt.Errorf("evaluating size of %s operation: %w", o.Kind, err)
	}
	result.Step, err = o.Step.Eval(args)
	if err != nil {
		return Evaluated{}, fmt.Errorf("evaluating address step of %s operation: %w", o.Kind, err)
	}
	return result, nil
}

func (o *Operation) validate() error {
	if _, ok := kindNames[o.Kind]; !ok {
		return fmt.Errorf("%w: unknown operation kind %d", ErrInvalidDefinition, int(o.Kind))
	}
	if want := o.Kind.operandCount(); len(o.Operands) != want {
		return fmt.Errorf("%w: %s operation needs %d operands but has %d",
			ErrInvalidDefinition, o.Kind, want, len(o.Operands))
	}
	if o.Size == nil {
		return fmt.Errorf("%w: %s operation has no size", ErrInvalidDefinition, o.Kind)
	}
	if o.NoBreak && o.Kind != Address {
		return fmt.Errorf("%w: only address operations can be no-break", ErrInvalidDefinition)
	}
	return nil
}

func (o *Operation) String() string {
	patterns := make([]string, 0, LookaheadSize)
	for _, predicate := range o.Match {
		patterns = append(patterns, predicate.String())
	}
	return fmt.Sprintf("%s [%s]", o.Kind, strings.Join(patterns, " "))
}
