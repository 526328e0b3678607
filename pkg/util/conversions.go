package util

import (
	"fmt"
	"strconv"
)

// StringToUint64 converts string to uint64
func StringToUint64(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uint64: %w", err)
	}
	return n, nil
}

// IsDigits reports whether s is non-empty and consists entirely of decimal
// digits. Discord snowflakes are digit runs; anything else is a username or
// display name pasted by mistake.
func IsDigits(s string) bool {
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

// Truncate cuts s down to at most max runes. Embed field values and audit
// log reasons have hard length caps on the Discord side.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
