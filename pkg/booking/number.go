package booking

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a float64 that accepts the loose values form inputs produce:
// 12, 12.5, "12", " 12.5 ", "" and null. Empty values decode to zero,
// anything else that does not parse is rejected.
type Number float64

// looseFloat decodes a JSON number, a numeric string or a blank value.
func looseFloat(b []byte) (float64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return 0, nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("booking: %q is not a number", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	return f, nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	f, err := looseFloat(b)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Int is a count (boxes, quantities, box numbers) decoded with the same
// rules as Number. Fractions are rejected.
type Int int

func (n *Int) UnmarshalJSON(b []byte) error {
	f, err := looseFloat(b)
	if err != nil {
		return err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("booking: %s is not a whole number", bytes.TrimSpace(b))
	}
	*n = Int(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// Int truncates towards zero.
func (n Number) Int() int { return int(n) }

// format2 renders a number with two decimals, the way courier APIs expect weights.
func format2(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func strOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
