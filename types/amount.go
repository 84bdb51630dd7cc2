// Package types provides common types used across the vesting ledger.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Amount is a non-negative token quantity in the asset's smallest unit.
// All arithmetic is integer-only and arbitrary precision (up to 256 bits).
// The zero value is a valid zero amount.
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for unmarshalling.
type Amount struct {
	inner sdkmath.Uint
	valid bool
}

// ZeroAmount returns an amount of zero.
func ZeroAmount() Amount { return Amount{inner: sdkmath.ZeroUint(), valid: true} }

// NewAmount creates an Amount from a uint64.
func NewAmount(v uint64) Amount { return Amount{inner: sdkmath.NewUint(v), valid: true} }

// ParseAmount parses a base-10 integer string into an Amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAmount(), nil
	}
	u, err := sdkmath.ParseUint(s)
	if err != nil {
		return Amount{}, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	return Amount{inner: u, valid: true}, nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBig converts a non-negative big.Int into an Amount.
func AmountFromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return ZeroAmount(), nil
	}
	if b.Sign() < 0 {
		return Amount{}, fmt.Errorf("amount: negative value %s", b.String())
	}
	return ParseAmount(b.String())
}

func (a Amount) uint() sdkmath.Uint {
	if !a.valid {
		return sdkmath.ZeroUint()
	}
	return a.inner
}

// Big returns a copy of the amount as a big.Int.
func (a Amount) Big() *big.Int { return a.uint().BigInt() }

// Add returns a + other.
func (a Amount) Add(other Amount) Amount {
	return Amount{inner: a.uint().Add(other.uint()), valid: true}
}

// Sub returns a - other. Panics if the result would be negative;
// callers compare first or use SubFloor.
func (a Amount) Sub(other Amount) Amount {
	if a.LT(other) {
		panic(fmt.Sprintf("amount: underflow %s - %s", a, other))
	}
	return Amount{inner: a.uint().Sub(other.uint()), valid: true}
}

// SubFloor returns a - other, or zero when other exceeds a. The second
// return value reports whether the subtraction was exact.
func (a Amount) SubFloor(other Amount) (Amount, bool) {
	if a.LT(other) {
		return ZeroAmount(), false
	}
	return a.Sub(other), true
}

// MulDiv returns floor(a * num / den) computed without intermediate
// overflow. Panics if den is zero.
func (a Amount) MulDiv(num, den uint64) Amount {
	if den == 0 {
		panic("amount: division by zero")
	}
	n := new(big.Int).Mul(a.Big(), new(big.Int).SetUint64(num))
	n.Quo(n, new(big.Int).SetUint64(den))
	out, err := AmountFromBig(n)
	if err != nil {
		panic(err)
	}
	return out
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.uint().IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return !a.IsZero() }

// Equal returns true if both amounts are equal.
func (a Amount) Equal(other Amount) bool { return a.uint().Equal(other.uint()) }

// LT returns true if a < other.
func (a Amount) LT(other Amount) bool { return a.uint().LT(other.uint()) }

// LTE returns true if a <= other.
func (a Amount) LTE(other Amount) bool { return a.uint().LTE(other.uint()) }

// GT returns true if a > other.
func (a Amount) GT(other Amount) bool { return a.uint().GT(other.uint()) }

// GTE returns true if a >= other.
func (a Amount) GTE(other Amount) bool { return a.uint().GTE(other.uint()) }

// Min returns the smaller of two amounts.
func (a Amount) Min(other Amount) Amount {
	if a.LT(other) {
		return a
	}
	return other
}

// String returns the base-10 representation.
func (a Amount) String() string { return a.uint().String() }

// FormatUnits renders the amount as a decimal string using the given
// display precision, e.g. 1500000 with 6 decimals is "1.500000".
func (a Amount) FormatUnits(decimals uint8) string {
	s := a.String()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	return s[:len(s)-d] + "." + s[len(s)-d:]
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string so that values beyond
// 2^53 survive JavaScript consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both a JSON string and a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	return a.UnmarshalText([]byte(s))
}

// Sum adds up amounts.
func Sum(values ...Amount) Amount {
	total := ZeroAmount()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// TokenAmount pairs an amount with the token it is denominated in and the
// token's display precision.
type TokenAmount struct {
	Token    string `json:"token"`
	Amount   Amount `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

// String returns a human-readable string, e.g. "1.500000 usdt".
func (t TokenAmount) String() string {
	return t.Amount.FormatUnits(t.Decimals) + " " + t.Token
}

// MarshalJSON implements json.Marshaler, adding a display field.
func (t TokenAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Token    string `json:"token"`
		Amount   Amount `json:"amount"`
		Decimals uint8  `json:"decimals"`
		Display  string `json:"display"`
	}{
		Token:    t.Token,
		Amount:   t.Amount,
		Decimals: t.Decimals,
		Display:  t.Amount.FormatUnits(t.Decimals),
	})
}
