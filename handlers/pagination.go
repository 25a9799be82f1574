package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize keeps polling clients on small pages; location and
	// prediction feeds update every few seconds, so deep history pulls
	// are the exception.
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Page describes one window of a time-ordered listing: newest first,
// everything strictly older than Before.
type Page struct {
	Size   int
	Before *time.Time
}

type PagedResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"next_cursor,omitempty"`
	HasMore    bool        `json:"has_more"`
}

// PageFromQuery reads limit and before from the query string, clamping
// the size and dropping unparseable cursors.
func PageFromQuery(c *gin.Context) Page {
	p := Page{Size: DefaultPageSize}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			p.Size = min(l, MaxPageSize)
		}
	}
	if beforeStr := c.Query("before"); beforeStr != "" {
		if t, err := time.Parse(time.RFC3339Nano, beforeStr); err == nil {
			p.Before = &t
		}
	}
	return p
}

// Apply orders the query newest-first on column and fetches one row
// beyond the page size so the caller can tell whether more remain.
func (p Page) Apply(query *gorm.DB, column string) *gorm.DB {
	query = query.Order(column + " DESC").Limit(p.Size + 1)
	if p.Before != nil {
		query = query.Where(column+" < ?", *p.Before)
	}
	return query
}

// TrimPage drops the lookahead row fetched by Apply and reports
// whether a following page exists.
func TrimPage[T any](p Page, rows []T) ([]T, bool) {
	if len(rows) <= p.Size {
		return rows, false
	}
	return rows[:p.Size], true
}

// Cursor encodes a row timestamp as the before value for the next page.
func Cursor(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
