package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Offset turns a 1-based page number and page size into an offset/limit
// pair, clamping both into range.
func Offset(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// ParseInt reads an optional integer query value, falling back to def when
// the value is empty.
func ParseInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
