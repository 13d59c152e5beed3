package db

import "testing"

func TestPagingParams(t *testing.T) {
	tests := []struct {
		in            PagingParams
		limit, offset int
	}{
		{PagingParams{Page: 1, PerPage: 5}, 5, 0},
		{PagingParams{Page: 3, PerPage: 5}, 5, 10},
		{PagingParams{Page: 0, PerPage: 0}, defaultPerPage, 0},
		{PagingParams{Page: -2, PerPage: 5}, 5, 0},
	}
	for _, tt := range tests {
		if got := tt.in.Limit(); got != tt.limit {
			t.Errorf("%+v Limit() = %d, want %d", tt.in, got, tt.limit)
		}
		if got := tt.in.Offset(); got != tt.offset {
			t.Errorf("%+v Offset() = %d, want %d", tt.in, got, tt.offset)
		}
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage([]int{1, 2}, 12, PagingParams{Page: 0, PerPage: 5})

	if page.CurrentPage != 1 || page.PerPage != 5 || page.TotalItems != 12 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.TotalPages() != 3 {
		t.Errorf("TotalPages() = %d, want 3", page.TotalPages())
	}
	if page.HasPrevious() || !page.HasNext() {
		t.Errorf("first page: HasPrevious=%v HasNext=%v", page.HasPrevious(), page.HasNext())
	}

	last := NewPage[int](nil, 12, PagingParams{Page: 3, PerPage: 5})
	if !last.HasPrevious() || last.HasNext() {
		t.Errorf("last page: HasPrevious=%v HasNext=%v", last.HasPrevious(), last.HasNext())
	}
}
