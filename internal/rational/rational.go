package rational

import (
	"fmt"
	"math"
)

// Rational is an exact fraction. Values are never reduced automatically, so
// Mul(One) and Add(Zero) return a value that is field-for-field identical
// to the receiver.
type Rational struct {
	Num int `json:"numerator"`
	Den int `json:"denominator"`
}

var (
	Zero = Rational{Num: 0, Den: 1}
	One  = Rational{Num: 1, Den: 1}
)

// New panics when d is zero.
func New(n, d int) Rational {
	if d == 0 {
		panic("rational: zero denominator")
	}
	return Rational{Num: n, Den: d}
}

func (r Rational) Add(o Rational) Rational {
	return Rational{Num: r.Num*o.Den + o.Num*r.Den, Den: r.Den * o.Den}
}

func (r Rational) Mul(o Rational) Rational {
	return Rational{Num: r.Num * o.Num, Den: r.Den * o.Den}
}

// AddChecked is Add that returns r and false when the sum does not fit in
// an int.
func (r Rational) AddChecked(o Rational) (Rational, bool) {
	a, okA := mulInt(r.Num, o.Den)
	b, okB := mulInt(o.Num, r.Den)
	d, okD := mulInt(r.Den, o.Den)
	if !okA || !okB || !okD || d == 0 {
		return r, false
	}
	n := a + b
	if (a > 0 && b > 0 && n < 0) || (a < 0 && b < 0 && n >= 0) {
		return r, false
	}
	return Rational{Num: n, Den: d}, true
}

// MulChecked is Mul that returns r and false when the product does not fit
// in an int.
func (r Rational) MulChecked(o Rational) (Rational, bool) {
	n, okN := mulInt(r.Num, o.Num)
	d, okD := mulInt(r.Den, o.Den)
	if !okN || !okD || d == 0 {
		return r, false
	}
	return Rational{Num: n, Den: d}, true
}

func mulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}

// Cmp returns -1, 0 or +1 depending on whether r is less than, equal to or
// greater than o.
func (r Rational) Cmp(o Rational) int {
	l, rr := r.Num*o.Den, o.Num*r.Den
	if r.Den*o.Den < 0 {
		l, rr = -l, -rr
	}
	switch {
	case l < rr:
		return -1
	case l > rr:
		return 1
	}
	return 0
}

func (r Rational) Equal(o Rational) bool { return r.Cmp(o) == 0 }

func (r Rational) Less(o Rational) bool { return r.Cmp(o) < 0 }

func (r Rational) IsZero() bool { return r.Num == 0 }

func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return math.NaN()
	}
	return float64(r.Num) / float64(r.Den)
}

// Reduce returns r in lowest terms with a positive denominator. It is only
// needed for display.
func (r Rational) Reduce() Rational {
	if r.Den == 0 {
		return r
	}
	g := gcd(abs(r.Num), abs(r.Den))
	if g == 0 {
		return Rational{Num: 0, Den: 1}
	}
	n, d := r.Num/g, r.Den/g
	if d < 0 {
		n, d = -n, -d
	}
	return Rational{Num: n, Den: d}
}

func (r Rational) String() string {
	red := r.Reduce()
	if red.Den == 1 {
		return fmt.Sprintf("%d", red.Num)
	}
	return fmt.Sprintf("%d/%d", red.Num, red.Den)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
