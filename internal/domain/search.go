package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 10000
)

type SearchQuery struct {
	City     string
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
	Page     int
	Size     int
}

// Normalize folds the city and clamps paging into its bounds.
func (q SearchQuery) Normalize() SearchQuery {
	q.City = strings.ToLower(strings.TrimSpace(q.City))
	q.CheckIn = Day(q.CheckIn)
	q.CheckOut = Day(q.CheckOut)
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	return q
}

// CacheKey must be called on a normalized query.
func (q SearchQuery) CacheKey() string {
	return fmt.Sprintf("search:%s:%s:%s:%d:%d:%d",
		q.City, q.CheckIn.Format(DateLayout), q.CheckOut.Format(DateLayout), q.Guests, q.Page, q.Size)
}

type HotelPage struct {
	Items      []HotelSummary `json:"items"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	TotalPages int            `json:"totalPages"`
}
