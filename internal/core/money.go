// Package core provides money parsing and handling utilities.
//
// This file contains the lenient numeric types used by lease records and the
// functions for parsing monetary amounts from strings.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

type Money struct {
	Cents int64
}

// Number is a non-monetary quantity such as square feet or a PSF rate.
type Number float64

// MoneyFromFloat converts a currency amount to cents, rounding half away from zero.
// Non-finite values and amounts outside the int64 cent range become zero.
func MoneyFromFloat(v float64) Money {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}
	}
	c := math.Round(v * 100)
	// float64(math.MaxInt64) rounds up to 2^63, so equality already overflows.
	if c >= math.MaxInt64 || c <= math.MinInt64 {
		return Money{}
	}
	return Money{Cents: int64(c)}
}

// Dollars returns the value in currency units for display and ratio math.
// Use cents for sums to avoid floating-point drift.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Dollars(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or a numeric string. Anything else decodes
// to zero instead of failing the whole record.
func (m *Money) UnmarshalJSON(data []byte) error {
	*m = MoneyFromFloat(lenientFloat(data))
	return nil
}

func (m *Money) UnmarshalYAML(node *yaml.Node) error {
	*m = MoneyFromFloat(parseLenient(node.Value))
	return nil
}

func (m Money) MarshalYAML() (any, error) {
	return m.Dollars(), nil
}

// Float returns the value with NaN and infinities mapped to zero.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(n.Float(), 'f', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(lenientFloat(data))
	return nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	*n = Number(parseLenient(node.Value))
	return nil
}

func lenientFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return 0
		}
		return parseLenient(s)
	}
	return parseLenient(string(data))
}

func parseLenient(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts an optional leading currency sign and comma thousands separators
// and performs half-up rounding on the third decimal place. Zero is allowed;
// negative values are rejected.
//
// Examples:
//
//	ParseDecimalToCents("12.34")     -> 1234, nil
//	ParseDecimalToCents("$1,250.00") -> 125000, nil
//	ParseDecimalToCents("12.345")    -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}
