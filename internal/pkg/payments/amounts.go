package payments

import (
	"fmt"
	"strings"
)

// ParseMinorUnits converts a provider decimal-string amount ("25.00") into
// integer minor units (2500) without going through floating point, so the
// conversion is exact for the two-fraction-digit currencies we settle in.
// Amounts with more than two fraction digits are rounded half-up on the third
// digit; that is the one place fractional-cent rounding exists in the system.
func ParseMinorUnits(value string) (int64, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("malformed amount %q", value)
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return 0, fmt.Errorf("malformed amount %q", value)
	}

	var units int64
	for _, r := range intPart {
		units = units*10 + int64(r-'0')
		if units > (1<<62)/100 {
			return 0, fmt.Errorf("amount %q out of range", value)
		}
	}
	units *= 100

	switch {
	case len(fracPart) == 0:
	case len(fracPart) == 1:
		units += int64(fracPart[0]-'0') * 10
	default:
		units += int64(fracPart[0]-'0')*10 + int64(fracPart[1]-'0')
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			units++
		}
	}

	if negative {
		units = -units
	}
	return units, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
