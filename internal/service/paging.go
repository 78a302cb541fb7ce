package service

import (
	"math"
	"strings"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit within int for every allowed limit.
	MaxPage = math.MaxInt / MaxPageLimit
)

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items     []T   `json:"items"`
	Total     int64 `json:"total"`
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	PageCount int   `json:"pageCount"`
}

// ClampPage keeps a page number within [1, MaxPage].
func ClampPage(p int) int {
	if p < 1 {
		return 1
	}
	if p > MaxPage {
		return MaxPage
	}
	return p
}

// ClampLimit keeps a page size within [1, MaxPageLimit].
func ClampLimit(l int) int {
	if l < 1 {
		return 1
	}
	if l > MaxPageLimit {
		return MaxPageLimit
	}
	return l
}

// PageCount is ceil(total/limit), never less than 1.
func PageCount(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 1
	}
	n := int((total + int64(limit) - 1) / int64(limit))
	if n < 1 {
		return 1
	}
	return n
}

// Sort is a field name plus direction, parsed from "field" or "-field".
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort accepts "name" (ascending) or "-name" (descending).  Fields not
// in allowed yield def.
func ParseSort(raw string, allowed []string, def Sort) Sort {
	raw = strings.TrimSpace(raw)
	desc := strings.HasPrefix(raw, "-")
	field := strings.TrimPrefix(raw, "-")
	for _, a := range allowed {
		if a == field {
			return Sort{Field: field, Desc: desc}
		}
	}
	return def
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: "createdAt", Desc: true}

// MovieSortFields and AccountSortFields are the client-visible sort keys.
var (
	MovieSortFields   = []string{"createdAt", "updatedAt", "name"}
	AccountSortFields = []string{"createdAt", "updatedAt", "email", "firstName", "lastName"}
)

func newPage[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, PageCount: PageCount(total, limit)}
}
