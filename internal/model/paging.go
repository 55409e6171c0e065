package model

const (
	DefaultPageSize = 25
	MaxPageSize     = 1000
)

// Page describes one page of a collection. Total is computed by the store.
type Page struct {
	Number int `json:"page_number"`
	Size   int `json:"page_size"`
	Total  int `json:"collection_total"`
}

// Offset returns the row offset of the page. Pages are numbered from 1.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Normalize clamps the page number and size to usable values.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Query carries the paging, sorting and filter inputs of a collection read.
type Query struct {
	Page    Page    `json:"paged_collection"`
	SortBy  string  `json:"sort_by"`
	SortAsc bool    `json:"sort_ascending"`
	IDs     []int64 `json:"id_collection"`
	Term    string  `json:"search_term"`
}

// Response is the envelope every public catalog and checkout operation
// returns. Success=false with a zero Item is the only failure signal.
type Response[T any] struct {
	Success bool  `json:"success"`
	Item    T     `json:"item"`
	Page    *Page `json:"paged_collection,omitempty"`
}

// OK wraps item in a successful response.
func OK[T any](item T) Response[T] {
	return Response[T]{Success: true, Item: item}
}

// Paged wraps item in a successful response with page info.
func Paged[T any](item T, page Page) Response[T] {
	return Response[T]{Success: true, Item: item, Page: &page}
}

// Failed returns an unsuccessful response with an empty payload.
func Failed[T any]() Response[T] {
	return Response[T]{}
}
