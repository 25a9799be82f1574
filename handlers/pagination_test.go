package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func pageFor(t *testing.T, query string) Page {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return PageFromQuery(c)
}

func TestPageFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantSize int
	}{
		{"defaults", "", DefaultPageSize},
		{"explicit limit", "limit=10", 10},
		{"clamped to max", "limit=500", MaxPageSize},
		{"zero ignored", "limit=0", DefaultPageSize},
		{"negative ignored", "limit=-5", DefaultPageSize},
		{"garbage ignored", "limit=ten", DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pageFor(t, tt.query)
			if p.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", p.Size, tt.wantSize)
			}
			if p.Before != nil {
				t.Errorf("Before = %v, want nil", p.Before)
			}
		})
	}
}

func TestPageFromQueryBeforeCursor(t *testing.T) {
	cursor := "2025-03-10T12:00:00.123456789Z"
	p := pageFor(t, "before="+cursor)
	if p.Before == nil {
		t.Fatal("expected Before to be parsed")
	}
	want, _ := time.Parse(time.RFC3339Nano, cursor)
	if !p.Before.Equal(want) {
		t.Errorf("Before = %v, want %v", p.Before, want)
	}

	if p := pageFor(t, "before=last-tuesday"); p.Before != nil {
		t.Errorf("unparseable cursor should be dropped, got %v", p.Before)
	}
}

func TestTrimPage(t *testing.T) {
	p := Page{Size: 3}

	rows, hasMore := TrimPage(p, []int{1, 2, 3, 4})
	if len(rows) != 3 || !hasMore {
		t.Errorf("lookahead row present: rows = %v, hasMore = %v", rows, hasMore)
	}

	rows, hasMore = TrimPage(p, []int{1, 2, 3})
	if len(rows) != 3 || hasMore {
		t.Errorf("exactly full page: rows = %v, hasMore = %v", rows, hasMore)
	}

	rows, hasMore = TrimPage(p, []int{1})
	if len(rows) != 1 || hasMore {
		t.Errorf("partial page: rows = %v, hasMore = %v", rows, hasMore)
	}

	rows, hasMore = TrimPage[int](p, nil)
	if len(rows) != 0 || hasMore {
		t.Errorf("empty page: rows = %v, hasMore = %v", rows, hasMore)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 123456789, time.UTC)
	parsed, err := time.Parse(time.RFC3339Nano, Cursor(at))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !parsed.Equal(at) {
		t.Errorf("round trip lost precision: %v != %v", parsed, at)
	}
}
