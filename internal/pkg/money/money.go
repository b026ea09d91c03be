// Package money holds currency amounts as integer minor units (cents).
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cents is a fixed-point amount with two decimal places.
type Cents int64

// FromUnits converts whole currency units to Cents.
func FromUnits(units int64) Cents {
	return Cents(units * 100)
}

// Mul multiplies an amount by an integer quantity.
func (c Cents) Mul(n int64) Cents {
	return Cents(int64(c) * n)
}

func (c Cents) Add(other Cents) Cents {
	return c + other
}

// String renders the amount as a decimal string, e.g. "450.00".
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Parse reads a decimal string with at most two fractional digits.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("invalid amount %q: expected at most two decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	total := w*100 + f
	if neg {
		total = -total
	}
	return Cents(total), nil
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both "450.00" and 450.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid amount: %s", string(data))
		}
		s = n.String()
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Value stores the amount as BIGINT minor units.
func (c Cents) Value() (driver.Value, error) {
	return int64(c), nil
}
