// Package core provides amount parsing for subscription prices.
//
// Amounts are kept as float64 in the subscription's own currency. KRW has
// no minor unit, other currencies carry at most two decimals.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user supplied price into a non-negative amount
// rounded half-up to two decimals.
//
// Both dot and comma are accepted as decimal separators. Commas followed by
// groups of exactly three digits are read as thousands separators, so
// "17,000" is seventeen thousand while "4,99" is four point ninety-nine.
//
// Examples:
//
//	ParseAmount("17000")     -> 17000
//	ParseAmount("17,000")    -> 17000
//	ParseAmount("1,234.5")   -> 1234.5
//	ParseAmount("4,99")      -> 4.99
//	ParseAmount("12.346")    -> 12.35
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	s = normalizeSeparators(s)

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidAmount
	}
	return RoundTo(v, 2), nil
}

func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	if strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", "")
	}
	groups := strings.Split(s, ",")
	thousands := len(groups[0]) > 0 && len(groups[0]) <= 3
	for _, g := range groups[1:] {
		if len(g) != 3 {
			thousands = false
			break
		}
	}
	if thousands {
		return strings.Join(groups, "")
	}
	return strings.ReplaceAll(s, ",", ".")
}

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
