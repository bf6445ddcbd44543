package util

import (
	"strconv"
)

// MustParseUint parses an unsigned integer path parameter, returning 0 on failure.
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseInt parses a signed integer, returning the fallback on failure.
func ParseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
