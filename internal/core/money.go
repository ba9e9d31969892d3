// Package core holds the domain model: users, categories, expenses,
// money amounts and the error taxonomy shared by all services.
//
// This file contains money parsing and formatting. Amounts are kept as
// integer cents to avoid floating-point drift; decimal strings are the
// exchange format on the wire and in the aggregate cache.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a positive monetary amount in cents.
type Money struct {
	Cents int64
}

// ParseMoney converts a decimal string to cents with half-up rounding
// on the third decimal place. Both dot and comma separators are
// accepted. Zero and negative amounts are rejected.
//
// Examples:
//
//	ParseMoney("12.34") -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents (rounds up)
func ParseMoney(s string) (Money, error) {
	m, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseTotal parses an aggregate sum. Unlike ParseMoney it accepts
// zero, the total of an empty expense list.
func ParseTotal(s string) (Money, error) {
	return parseDecimal(s)
}

func parseDecimal(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, ErrInvalidAmount
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
			return Money{}, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, ErrInvalidAmount
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
	return Money{Cents: iv*100 + fracCents}, nil
}

// String renders the amount as a decimal with two fraction digits.
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.Cents/100, m.Cents%100)
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Validate rejects non-positive amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// MarshalJSON renders money as a decimal string, the wire format the
// API and the cache share.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts both quoted decimal strings and bare numbers.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
