package ports

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a normalized 1-based page request. A zero Limit means no limit and
// is only used internally.
type Page struct {
	Number int
	Limit  int
}

// NewPage applies defaults and caps the limit at MaxLimit.
func NewPage(number, limit int) Page {
	if number < 1 {
		number = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Number: number, Limit: limit}
}

// Skip is the number of rows before this page.
func (p Page) Skip() int64 {
	if p.Limit == 0 || p.Number < 1 {
		return 0
	}
	return int64((p.Number - 1) * p.Limit)
}

// TotalPages returns the page count needed to hold total rows.
func (p Page) TotalPages(total int64) int {
	if p.Limit == 0 || total == 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// PageResult is a page of rows plus the paging metadata.
type PageResult[T any] struct {
	Items      []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewPageResult wraps items fetched for p.
func NewPageResult[T any](items []T, total int64, p Page) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.Number,
		Limit:      p.Limit,
		TotalPages: p.TotalPages(total),
	}
}
