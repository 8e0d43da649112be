package models

// Page is one page of a paginated listing. Number is 1-based.
type Page[T any] struct {
	Items  []T `json:"items"`
	Number int `json:"page"`
	Size   int `json:"per_page"`
	Total  int `json:"total"`
}

// NewPage clamps number and size to sane values.
func NewPage[T any](items []T, number, size, total int) *Page[T] {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = 1
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Number: number, Size: size, Total: total}
}

// Offset returns the row offset of page number with the given size.
func Offset(number, size int) int {
	if number < 1 {
		number = 1
	}
	return (number - 1) * size
}

// TotalPages is at least 1 so an empty listing still renders a single page.
func (p *Page[T]) TotalPages() int {
	if p.Total <= 0 {
		return 1
	}
	return (p.Total + p.Size - 1) / p.Size
}

func (p *Page[T]) HasPrev() bool { return p.Number > 1 }
func (p *Page[T]) HasNext() bool { return p.Number < p.TotalPages() }
func (p *Page[T]) Prev() int     { return p.Number - 1 }
func (p *Page[T]) Next() int     { return p.Number + 1 }

// Numbers lists every page number, used by the pagination links.
func (p *Page[T]) Numbers() []int {
	n := p.TotalPages()
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
