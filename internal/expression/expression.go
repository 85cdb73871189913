// Package expression implements the arithmetic formulas used by the format
// templates.
//
// The grammar is deliberately small: integer literals in decimal, 0x prefixed
// hex or $ prefixed hex, the operators + - * / and the placeholders [0], [1]
// and [2] that refer to the lookahead bytes of the decoder. Expressions are
// split at the leftmost operator of the lowest precedence tier, which makes
// chained subtractions and divisions right associative: "10-3-2" is 9.
package expression

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedExpression is returned for any text that does not form a valid
// expression or can not be evaluated.
var ErrMalformedExpression = errors.New("malformed expression")

// Expr is a compiled expression that can be evaluated repeatedly.
type Expr interface {
	// Eval evaluates the expression, placeholders are resolved from args.
	Eval(args []int) (int, error)
	fmt.Stringer
}

type literal int

type placeholder int

type binary struct {
	op          byte
	left, right Expr
}

// Compile parses the text into an expression.
func Compile(text string) (Expr, error) {
	return compileSum(text)
}

// MustCompile is like Compile but panics if the text can not be parsed.
func MustCompile(text string) Expr {
	expr, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return expr
}

// Evaluate compiles and evaluates a text that does not contain placeholders.
func Evaluate(text string) (int, error) {
	expr, err := Compile(text)
	if err != nil {
		return 0, err
	}
	return expr.Eval(nil)
}

func compileSum(text string) (Expr, error) {
	if i := strings.IndexByte(text, '+'); i >= 0 {
		return compileBinary('+', text[:i], text[i+1:], compileSum)
	}
	if i := strings.IndexByte(text, '-'); i >= 0 {
		return compileBinary('-', text[:i], text[i+1:], compileSum)
	}
	return compileProduct(text)
}

func compileProduct(text string) (Expr, error) {
	if i := strings.IndexByte(text, '*'); i >= 0 {
		return compileBinary('*', text[:i], text[i+1:], compileProduct)
	}
	if i := strings.IndexByte(text, '/'); i >= 0 {
		return compileBinary('/', text[:i], text[i+1:], compileProduct)
	}
	return compileLiteral(text)
}

func compileBinary(op byte, left, right string, next func(string) (Expr, error)) (Expr, error) {
	l, err := next(left)
	if err != nil {
		return nil, err
	}
	r, err := next(right)
	if err != nil {
		return nil, err
	}
	return binary{op: op, left: l, right: r}, nil
}

func compileLiteral(text string) (Expr, error) {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		index, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil || index < 0 {
			return nil, fmt.Errorf("%w: invalid placeholder '%s'", ErrMalformedExpression, s)
		}
		return placeholder(index), nil
	}

	var (
		value int64
		err   error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		value, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "$"):
		value, err = strconv.ParseInt(s[1:], 16, 64)
	default:
		value, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil || value < 0 {
		return nil, fmt.Errorf("%w: invalid token '%s'", ErrMalformedExpression, s)
	}
	return literal(value), nil
}

func (l literal) Eval([]int) (int, error) {
	return int(l), nil
}

func (l literal) String() string {
	return strconv.Itoa(int(l))
}

func (p placeholder) Eval(args []int) (int, error) {
	if int(p) >= len(args) {
		return 0, fmt.Errorf("%w: placeholder [%d] has no value", ErrMalformedExpression, int(p))
	}
	return args[p], nil
}

func (p placeholder) String() string {
	return fmt.Sprintf("[%d]", int(p))
}

func (b binary) Eval(args []int) (int, error) {
	l, err := b.left.Eval(args)
	if err != nil {
		return 0, err
	}
	r, err := b.right.Eval(args)
	if err != nil {
		return 0, err
	}

	switch b.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		if r == 0 {
			return 0, fmt.Errorf("%w: division by zero in '%s'", ErrMalformedExpression, b)
		}
		return l / r, nil
	}
}

func (b binary) String() string {
	return fmt.Sprintf("%s%c%s", b.left, b.op, b.right)
}
