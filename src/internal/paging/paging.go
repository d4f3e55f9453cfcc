// Package paging slices in-memory lists the way list endpoints expose them.
package paging

import (
	"math"
	"strings"

	"sikep-admin-svc/src/internal/config"
)

type Page struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// Normalize applies the default and maximum limit and a minimum page of 1.
func Normalize(page, limit int, cfg config.SearchConfig) (int, int) {
	if limit <= 0 {
		limit = cfg.MinQueryLimit
	}
	if cfg.MaxQueryLimit > 0 && limit > cfg.MaxQueryLimit {
		limit = cfg.MaxQueryLimit
	}
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	return page, limit
}

// Slice returns the requested page of items. A page past the end is empty.
func Slice[T any](items []T, page, limit int) ([]T, Page) {
	total := len(items)
	meta := Page{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}

	start := (page - 1) * limit
	if start >= total {
		return []T{}, meta
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], meta
}

// Contains is a case-insensitive substring match. An empty needle matches.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}
