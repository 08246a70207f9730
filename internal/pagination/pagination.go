// Package pagination normalises page/limit query parameters.
package pagination

import (
	"math"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxPage keeps the offset of any page within int range.
	MaxPage = math.MaxInt / MaxLimit
)

type Page struct {
	Page   int
	Limit  int
	Offset int
}

// FromQuery parses page and limit strings. Missing or invalid values fall
// back to page 1 and defaultLimit; the limit is capped at MaxLimit.
func FromQuery(pageStr, limitStr string, defaultLimit int) Page {
	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)
	return New(page, limit, defaultLimit)
}

func New(page, limit, defaultLimit int) Page {
	if defaultLimit < 1 {
		defaultLimit = DefaultLimit
	}
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Pages returns how many pages total items span.
func (p Page) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// Result is the paginated envelope returned by list endpoints.
type Result[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

func NewResult[T any](p Page, data []T, total int) Result[T] {
	if data == nil {
		data = []T{}
	}
	return Result[T]{Data: data, Total: total, Page: p.Page, Pages: p.Pages(total)}
}
