// Package core provides the ledger's domain types and amount handling.
//
// Amounts are exposed as float64 like the stored columns, while parsing and
// summation go through decimal arithmetic so repeated additions do not drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrNegativeAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	f, _ := d.Round(2).Float64()
	return f, nil
}

// Sum accumulates amounts exactly and reports the float result.
type Sum struct {
	d decimal.Decimal
}

func (s *Sum) Add(amount float64) {
	s.d = s.d.Add(decimal.NewFromFloat(amount))
}

func (s Sum) Float64() float64 {
	f, _ := s.d.Float64()
	return f
}

// Sums is a keyed set of Sum accumulators.
type Sums map[string]*Sum

func (s Sums) Add(key string, amount float64) {
	acc, ok := s[key]
	if !ok {
		acc = &Sum{}
		s[key] = acc
	}
	acc.Add(amount)
}

func (s Sums) Floats() map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v.Float64()
	}
	return out
}

// Delta returns after - before without binary rounding noise.
func Delta(before, after float64) float64 {
	f, _ := decimal.NewFromFloat(after).Sub(decimal.NewFromFloat(before)).Float64()
	return f
}
