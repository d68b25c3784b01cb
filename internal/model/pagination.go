package model

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams selects one page of a newest-first listing.
type ListParams struct {
	Page  int
	Limit int
}

func (p ListParams) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	// Saturate so absurd page numbers read past the end instead of wrapping.
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Page is one slice of a listing plus the size of the whole result set.
type Page[T any] struct {
	Items []T
	Total int
}

// Pages returns ceil(total/limit).
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
