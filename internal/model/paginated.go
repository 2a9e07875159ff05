package model

// Paginated is a page of a list endpoint.
// Next and Previous are absolute URLs, or empty on the first/last page.
type Paginated[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// HasNext reports whether another page follows.
func (p *Paginated[T]) HasNext() bool {
	return p.Next != ""
}

// HasPrevious reports whether a page precedes this one.
func (p *Paginated[T]) HasPrevious() bool {
	return p.Previous != ""
}

// TotalPages returns the number of pages for the given page size.
func (p *Paginated[T]) TotalPages(pageSize int) int {
	if pageSize <= 0 || p.Count == 0 {
		return 0
	}
	return (p.Count + pageSize - 1) / pageSize
}
