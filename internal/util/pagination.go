package util

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Calculate turns a 1-based page and a page size into an offset and limit.
// Out-of-range sizes fall back to DefaultPageSize.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}

// ParsePage reads page and size query values; garbage counts as unset.
func ParsePage(pageRaw, sizeRaw string) (from, limit int) {
	page, _ := strconv.Atoi(pageRaw)
	size, _ := strconv.Atoi(sizeRaw)
	return Calculate(page, size)
}

// ParseFloat returns nil for an empty or malformed value.
func ParseFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
