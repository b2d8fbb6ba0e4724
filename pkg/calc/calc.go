// Package calc evaluates plain arithmetic expressions with decimal precision.
//
// Supported: numbers (1, 1.5, .5), + - * / % ^, unary signs, parentheses and
// implicit multiplication before a parenthesis: 2(3+4). ^ is right-associative
// and binds tighter than unary minus, so -2^2 is -4. % is a floored modulo.
package calc

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	divisionPrecision = 16
	maxExponent       = 1000
	maxDepth          = 64

	// maxDigits bounds the integer digits of every intermediate result.
	maxDigits     = 1000
	maxExprLength = 1000
)

var maxMagnitude = decimal.New(1, maxDigits)

var (
	ErrSyntax         = errors.New("calc: syntax error")
	ErrDivisionByZero = errors.New("calc: division by zero")
	ErrInvalidPower   = errors.New("calc: invalid power")
	ErrTooDeep        = errors.New("calc: expression nested too deeply")
	ErrTooLarge       = errors.New("calc: result too large")
)

var arithmeticPattern = regexp.MustCompile(`^[0-9+\-*/().%^\s]+$`)

// IsArithmetic reports whether the trimmed input consists only of digits,
// decimal points, parentheses, whitespace and the operators + - * / % ^.
func IsArithmetic(input string) bool {
	return arithmeticPattern.MatchString(strings.TrimSpace(input))
}

// Evaluate parses and evaluates the expression.
func Evaluate(expr string) (decimal.Decimal, error) {
	if len(expr) > maxExprLength {
		return decimal.Zero, fmt.Errorf("%w: expression longer than %d bytes", ErrTooLarge, maxExprLength)
	}

	p := &parser{src: expr}
	p.next()

	value, err := p.expression()
	if err != nil {
		return decimal.Zero, err
	}
	if p.tok.kind != tokEOF {
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, p.tok.text, p.tok.pos)
	}
	return value, nil
}

type parser struct {
	src   string
	pos   int
	tok   token
	depth int
}

// expression := term (('+' | '-') term)*
func (p *parser) expression() (decimal.Decimal, error) {
	left, err := p.term()
	if err != nil {
		return decimal.Zero, err
	}

	for p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		right, err := p.term()
		if err != nil {
			return decimal.Zero, err
		}
		if op == "+" {
			left = left.Add(right)
		} else {
			left = left.Sub(right)
		}
		if err := checkMagnitude(left); err != nil {
			return decimal.Zero, err
		}
	}
	return left, nil
}

// term := unary (('*' | '/' | '%') unary | implicit '(' unary)*
func (p *parser) term() (decimal.Decimal, error) {
	left, err := p.unary()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		switch {
		case p.tok.kind == tokLParen:
			right, err := p.unary()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Mul(right)
			if err := checkMagnitude(left); err != nil {
				return decimal.Zero, err
			}
		case p.tok.kind == tokOp && (p.tok.text == "*" || p.tok.text == "/" || p.tok.text == "%"):
			op := p.tok.text
			p.next()
			right, err := p.unary()
			if err != nil {
				return decimal.Zero, err
			}
			left, err = apply(op, left, right)
			if err != nil {
				return decimal.Zero, err
			}
		default:
			return left, nil
		}
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) unary() (decimal.Decimal, error) {
	if p.tok.kind == tokOp && (p.tok.text == "+" || p.tok.text == "-") {
		op := p.tok.text
		p.next()
		if err := p.enter(); err != nil {
			return decimal.Zero, err
		}
		defer p.leave()

		value, err := p.unary()
		if err != nil {
			return decimal.Zero, err
		}
		if op == "-" {
			return value.Neg(), nil
		}
		return value, nil
	}
	return p.power()
}

// power := primary ('^' unary)?
func (p *parser) power() (decimal.Decimal, error) {
	base, err := p.primary()
	if err != nil {
		return decimal.Zero, err
	}
	if p.tok.kind != tokOp || p.tok.text != "^" {
		return base, nil
	}
	p.next()

	if err := p.enter(); err != nil {
		return decimal.Zero, err
	}
	defer p.leave()

	exponent, err := p.unary()
	if err != nil {
		return decimal.Zero, err
	}
	return pow(base, exponent)
}

// primary := number | '(' expression ')'
func (p *parser) primary() (decimal.Decimal, error) {
	switch p.tok.kind {
	case tokNumber:
		value, err := decimal.NewFromString(p.tok.text)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: bad number %q", ErrSyntax, p.tok.text)
		}
		p.next()
		return value, nil
	case tokLParen:
		p.next()
		if err := p.enter(); err != nil {
			return decimal.Zero, err
		}
		defer p.leave()

		value, err := p.expression()
		if err != nil {
			return decimal.Zero, err
		}
		if p.tok.kind != tokRParen {
			return decimal.Zero, fmt.Errorf("%w: missing closing parenthesis", ErrSyntax)
		}
		p.next()
		return value, nil
	case tokEOF:
		return decimal.Zero, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return decimal.Zero, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, p.tok.text, p.tok.pos)
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return ErrTooDeep
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func apply(op string, left, right decimal.Decimal) (decimal.Decimal, error) {
	switch op {
	case "*":
		result := left.Mul(right)
		if err := checkMagnitude(result); err != nil {
			return decimal.Zero, err
		}
		return result, nil
	case "/":
		if right.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		return left.DivRound(right, divisionPrecision), nil
	case "%":
		if right.IsZero() {
			return decimal.Zero, ErrDivisionByZero
		}
		r := left.Mod(right)
		if !r.IsZero() && r.Sign() != right.Sign() {
			r = r.Add(right)
		}
		return r, nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown operator %q", ErrSyntax, op)
}

func pow(base, exponent decimal.Decimal) (decimal.Decimal, error) {
	if exponent.Abs().GreaterThan(decimal.NewFromInt(maxExponent)) {
		return decimal.Zero, fmt.Errorf("%w: exponent too large", ErrInvalidPower)
	}
	if resultDigits(base, exponent) > maxDigits {
		return decimal.Zero, fmt.Errorf("%w: power exceeds %d digits", ErrTooLarge, maxDigits)
	}
	result, err := base.PowWithPrecision(exponent, divisionPrecision)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidPower, err)
	}
	if err := checkMagnitude(result); err != nil {
		return decimal.Zero, err
	}
	return result, nil
}

// resultDigits estimates log10(|base^exponent|) without computing the power.
func resultDigits(base, exponent decimal.Decimal) float64 {
	mag := base.Abs()
	if mag.IsZero() {
		return 0
	}

	log10 := float64(mag.NumDigits()) + float64(mag.Exponent())
	if f, _ := mag.Float64(); f > 0 && !math.IsInf(f, 0) {
		log10 = math.Log10(f)
	}
	return log10 * exponent.InexactFloat64()
}

func checkMagnitude(d decimal.Decimal) error {
	if d.Abs().GreaterThanOrEqual(maxMagnitude) {
		return fmt.Errorf("%w: more than %d digits", ErrTooLarge, maxDigits)
	}
	return nil
}
