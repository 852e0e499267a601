package domain

// Pagination describes one page of a larger result set. Pages are 1-based.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasMore reports whether a page after this one exists.
func (p Pagination) HasMore() bool {
	return p.Page < p.TotalPages
}

// Envelope wraps a snapshot of one page of T.
type Envelope[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages returns ceil(total / limit), 0 when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Paginate cuts page/limit out of items (already filtered) and returns the
// envelope. The returned slice is a fresh copy.
func Paginate[T any](items []T, page, limit int) Envelope[T] {
	if page < 1 {
		page = 1
	}
	total := len(items)
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]T, end-start)
	copy(data, items[start:end])

	return Envelope[T]{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: TotalPages(total, limit),
		},
	}
}

// WithTotal returns a copy of e whose total is shifted by delta and whose
// totalPages is recomputed. Totals never go below zero.
func (e Envelope[T]) WithTotal(delta int) Envelope[T] {
	p := e.Pagination
	p.Total += delta
	if p.Total < 0 {
		p.Total = 0
	}
	p.TotalPages = TotalPages(p.Total, p.Limit)
	e.Pagination = p
	return e
}
