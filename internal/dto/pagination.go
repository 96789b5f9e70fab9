package dto

import "math"

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPaginationMeta computes the page count for total items split into pages of limit.
func NewPaginationMeta(page, limit int, total int64) PaginationMeta {
	meta := PaginationMeta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return meta
}
