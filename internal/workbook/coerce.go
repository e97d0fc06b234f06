package workbook

import (
	"math"
	"strconv"
	"strings"
)

// Coerce converts a set value for storage. A string of decimal digits becomes
// an integer, anything else that parses as a finite float becomes a float, and
// everything else is kept unchanged. It never fails.
func Coerce(s string) CellValue {
	if isDigits(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i)
		}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return FloatValue(f)
	}
	return StringValue(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
