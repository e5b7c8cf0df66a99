// Package money is the single entry point for currency amounts. Every value
// that is persisted, compared or serialized goes through Money so that
// arithmetic happens in exact decimal representation and rounding to cents
// happens once, at the boundary.
//
// Rounding is half away from zero at two fractional digits (0.005 -> 0.01,
// -0.005 -> -0.01). N independently rounded amounts may differ from one
// combined rounding by up to 0.01 per operation; that boundary is accepted
// and pinned by tests, it is not something callers should try to compensate
// for.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/feuerwache/kantine/internal/errs"
	"github.com/shopspring/decimal"
)

type Money struct {
	d         decimal.Decimal
	corrupted bool
}

func Zero() Money {
	return Money{}
}

func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is for constants in tests and wiring, never for user input.
func MustParse(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func FromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, errs.ErrCorruptedBalance
	}
	return Money{d: decimal.NewFromFloat(f)}, nil
}

func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

func (m Money) Add(o Money) Money  { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money  { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money         { return Money{d: m.d.Neg()} }
func (m Money) MulInt(n int) Money { return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))} }

// Half returns half of m rounded to cents. Used for half-roll pricing: a
// half roll costs round(roll/2), and N halves cost N times that.
func (m Money) Half() Money {
	return Money{d: m.d.Div(decimal.NewFromInt(2))}.Round()
}

// Round rounds to two fractional digits, half away from zero, and is
// idempotent. A zero result never carries a sign.
func (m Money) Round() Money {
	r := m.d.Round(2)
	if r.IsZero() {
		return Money{}
	}
	return Money{d: r}
}

func (m Money) Cmp(o Money) int    { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) IsZero() bool       { return m.d.IsZero() }
func (m Money) IsNegative() bool   { return m.d.IsNegative() }

func (m Money) Cents() int64 {
	return m.Round().d.Shift(2).IntPart()
}

// Corrupted reports that the value was sanitized from a non-finite stored
// balance during Scan. The amount itself is already zero.
func (m Money) Corrupted() bool { return m.corrupted }

func (m Money) String() string {
	return m.Round().d.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// plain JSON numbers are tolerated on input, never produced on output
		var f float64
		if err2 := json.Unmarshal(data, &f); err2 != nil {
			return fmt.Errorf("unmarshal money: %w", err)
		}
		v, err2 := FromFloat(f)
		if err2 != nil {
			return err2
		}
		*m = v
		return nil
	}
	v, err := FromString(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.Round().d.StringFixed(2), nil
}

// Scan accepts NUMERIC, text and float representations. Non-finite values
// (NaN, Infinity) are sanitized to zero and flagged via Corrupted, matching
// the write-boundary rule that they must never reach a caller.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Money{}
		return nil
	case string:
		return m.scanString(v)
	case []byte:
		return m.scanString(string(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			*m = Money{corrupted: true}
			return nil
		}
		*m = Money{d: decimal.NewFromFloat(v)}
		return nil
	case int64:
		*m = Money{d: decimal.NewFromInt(v)}
		return nil
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
}

func (m *Money) scanString(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nan", "infinity", "-infinity", "inf", "-inf":
		*m = Money{corrupted: true}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("scan money %q: %w", s, err)
	}
	*m = Money{d: d}
	return nil
}
