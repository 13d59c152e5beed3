package view

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderPager(t *testing.T, page db.PagedResult[int]) string {
	t.Helper()
	var buf bytes.Buffer
	err := Pager(page.CurrentPage, page.TotalPages(), func(n int) string {
		return fmt.Sprintf("/my-shifts?tab=past&page=%d", n)
	}).Render(context.Background(), &buf)
	require.NoError(t, err)
	return buf.String()
}

func TestPager(t *testing.T) {
	tests := []struct {
		name     string
		page     db.PagedResult[int]
		contains []string
		absent   []string
	}{
		{
			name:   "single page renders nothing",
			page:   db.PagedResult[int]{TotalItems: 4, CurrentPage: 1, PerPage: 5},
			absent: []string{"<nav"},
		},
		{
			name:     "first page",
			page:     db.PagedResult[int]{TotalItems: 12, CurrentPage: 1, PerPage: 5},
			contains: []string{"1 / 3", `rel="next" href="/my-shifts?tab=past&amp;page=2"`},
			absent:   []string{`rel="prev"`},
		},
		{
			name:     "middle page",
			page:     db.PagedResult[int]{TotalItems: 12, CurrentPage: 2, PerPage: 5},
			contains: []string{"2 / 3", `page=1"`, `page=3"`},
		},
		{
			name:     "past the end points back to the last page",
			page:     db.PagedResult[int]{TotalItems: 12, CurrentPage: 9, PerPage: 5},
			contains: []string{"3 / 3", `rel="prev" href="/my-shifts?tab=past&amp;page=3"`},
			absent:   []string{`rel="next"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderPager(t, tt.page)
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, html, s)
			}
		})
	}
}
