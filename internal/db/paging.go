package db

const defaultPerPage = 10

// PagingParams vem da query string; valores inválidos caem no padrão.
type PagingParams struct {
	Page    int
	PerPage int
}

func (p PagingParams) normalized() PagingParams {
	p.Page = max(p.Page, 1)
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	return p
}

func (p PagingParams) Limit() int {
	return p.normalized().PerPage
}

func (p PagingParams) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.PerPage
}

// PagedResult é uma página de Items mais o total da consulta.
type PagedResult[T any] struct {
	Items       []T
	TotalItems  int
	CurrentPage int
	PerPage     int
}

func NewPage[T any](items []T, total int64, p PagingParams) PagedResult[T] {
	n := p.normalized()
	return PagedResult[T]{Items: items, TotalItems: int(total), CurrentPage: n.Page, PerPage: n.PerPage}
}

func (p PagedResult[T]) TotalPages() int {
	if p.PerPage == 0 {
		return 0
	}
	return (p.TotalItems + p.PerPage - 1) / p.PerPage
}

func (p PagedResult[T]) HasPrevious() bool { return p.CurrentPage > 1 }

func (p PagedResult[T]) HasNext() bool { return p.CurrentPage < p.TotalPages() }
