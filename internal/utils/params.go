// Package utils holds small parsing helpers for request parameters. They are
// independent of domain logic.
package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive decimal identifier (path parameters such as
// /games/:id). Signs, blanks, zero and overflow are rejected.
func ParseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// AtoiDefault parses a query value such as ?limit=, returning def when the
// value is blank or not an integer.
//
//	utils.AtoiDefault("42", 10) // 42
//	utils.AtoiDefault("", 10)   // 10
//	utils.AtoiDefault("x", 10)  // 10
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
