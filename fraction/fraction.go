// Package fraction implements the exact rational quantities used for dose
// amounts and supply levels.
package fraction

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidFormat   = errors.New("invalid format")
)

// Fraction is an immutable rational number kept in lowest terms with the sign
// on the numerator.
//
// The zero value is 0. Every representation of zero is stored as the zero
// value, so two Fractions are equal iff == holds.
type Fraction struct {
	num int64
	den int64
}

// Zero is the fraction 0/1.
var Zero = Fraction{}

// New returns num/den reduced to lowest terms.
func New(num, den int64) (Fraction, error) {
	if den <= 0 {
		return Fraction{}, fmt.Errorf("denominator %d: %w", den, ErrInvalidArgument)
	}
	return reduce(num, den), nil
}

// MustNew is like New but panics on an invalid denominator. Intended for
// constants and tests.
func MustNew(num, den int64) Fraction {
	f, err := New(num, den)
	if err != nil {
		panic(err)
	}
	return f
}

// FromInt returns n/1.
func FromInt(n int64) Fraction {
	return reduce(n, 1)
}

func reduce(num, den int64) Fraction {
	if num == 0 {
		return Fraction{}
	}
	g := gcd(abs(num), den)
	return Fraction{num: num / g, den: den / g}
}

// Num returns the numerator.
func (f Fraction) Num() int64 { return f.num }

// Den returns the denominator, which is always positive.
func (f Fraction) Den() int64 {
	if f.den == 0 {
		return 1
	}
	return f.den
}

// Add returns f + o.
func (f Fraction) Add(o Fraction) Fraction {
	l := lcm(f.Den(), o.Den())
	return reduce(f.num*(l/f.Den())+o.num*(l/o.Den()), l)
}

// Sub returns f - o.
func (f Fraction) Sub(o Fraction) Fraction {
	return f.Add(o.Negate())
}

// Negate returns -f.
func (f Fraction) Negate() Fraction {
	return Fraction{num: -f.num, den: f.den}
}

// Mul returns f * o.
func (f Fraction) Mul(o Fraction) Fraction {
	return reduce(f.num*o.num, f.Den()*o.Den())
}

// Div returns f / o. Dividing by zero fails with ErrInvalidArgument.
func (f Fraction) Div(o Fraction) (Fraction, error) {
	if o.IsZero() {
		return Fraction{}, fmt.Errorf("division by zero: %w", ErrInvalidArgument)
	}
	num, den := f.num*o.Den(), f.Den()*o.num
	if den < 0 {
		num, den = -num, -den
	}
	return reduce(num, den), nil
}

// Compare returns -1, 0 or +1 depending on whether f is less than, equal to
// or greater than o.
func (f Fraction) Compare(o Fraction) int {
	l, r := f.num*o.Den(), o.num*f.Den()
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

// Equal reports whether f and o denote the same value.
func (f Fraction) Equal(o Fraction) bool { return f == o }

// IsZero reports whether f is 0.
func (f Fraction) IsZero() bool { return f.num == 0 }

// IsNegative reports whether f < 0.
func (f Fraction) IsNegative() bool { return f.num < 0 }

// Float64 returns the nearest float64.
func (f Fraction) Float64() float64 {
	return float64(f.num) / float64(f.Den())
}

// Floor returns the greatest integer not above f.
func (f Fraction) Floor() int64 {
	q := f.num / f.Den()
	if f.num%f.Den() != 0 && f.num < 0 {
		q--
	}
	return q
}

// String renders f in its plain form, e.g. "5/4".
func (f Fraction) String() string {
	return f.Format(false)
}

// Format renders f. With mixed set, values whose magnitude is at least one
// render as "W N/D"; otherwise the plain "N/D" form is used. Integers always
// render without a fractional part.
func (f Fraction) Format(mixed bool) string {
	den := f.Den()
	if den == 1 {
		return strconv.FormatInt(f.num, 10)
	}
	if !mixed || abs(f.num) < den {
		return fmt.Sprintf("%d/%d", f.num, den)
	}
	sign := ""
	num := f.num
	if num < 0 {
		sign = "-"
		num = -num
	}
	return fmt.Sprintf("%s%d %d/%d", sign, num/den, num%den, den)
}

var (
	wholePattern    = regexp.MustCompile(`^[+-]?\d+$`)
	fractionPattern = regexp.MustCompile(`^(?:([+-]?\d+)\s+)?([+-]?\d+)\s*/\s*(\d+)$`)
)

// Parse reads a fraction written as an optional whole number followed by an
// optional "a/b" part, e.g. "3", "2 5/9", "-5/4" or "08/07".
func Parse(text string) (Fraction, error) {
	trimmed := strings.TrimSpace(text)
	if wholePattern.MatchString(trimmed) {
		whole, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Fraction{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
		}
		return FromInt(whole), nil
	}

	m := fractionPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Fraction{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	num, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	den, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil || den == 0 {
		return Fraction{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	if m[1] == "" {
		return reduce(num, den), nil
	}

	// A mixed number carries its sign on the whole part only.
	if strings.ContainsAny(m[2], "+-") {
		return Fraction{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	whole, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Fraction{}, fmt.Errorf("%q: %w", text, ErrInvalidFormat)
	}
	frac := reduce(num, den)
	if strings.HasPrefix(m[1], "-") {
		return FromInt(whole).Sub(frac), nil
	}
	return FromInt(whole).Add(frac), nil
}

// MarshalJSON encodes f as its plain text form.
func (f Fraction) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(f.String())), nil
}

// UnmarshalJSON accepts either a quoted fraction or a bare integer.
func (f *Fraction) UnmarshalJSON(data []byte) error {
	text := string(data)
	if text == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalBSONValue stores f as a BSON string.
func (f Fraction) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(f.String())
}

// UnmarshalBSONValue reads a fraction stored by MarshalBSONValue.
func (f *Fraction) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	text, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("bson type %s: %w", t, ErrInvalidFormat)
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
