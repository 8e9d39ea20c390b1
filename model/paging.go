package model

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 20

// Paging selects one page of a listing. Pages start at 1.
type Paging struct {
	Page  int
	Limit int
}

// NewPaging returns the given page at the default size. Pages below 1 are
// clamped to 1.
func NewPaging(page int) Paging {
	if page < 1 {
		page = 1
	}
	return Paging{Page: page, Limit: DefaultPageSize}
}

func (p Paging) normalized() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Paging) Offset() int {
	p = p.normalized()
	return p.Limit * (p.Page - 1)
}

// Size is the page length after defaults are applied.
func (p Paging) Size() int {
	return p.normalized().Limit
}

// Page is the envelope returned by listings. Next is set when the page was
// full, so another one may follow.
type Page[T any] struct {
	Page int  `json:"page"`
	Next bool `json:"next"`
	List []T  `json:"list"`
}

// NewPage wraps list for page p. A nil list is encoded as an empty array.
func NewPage[T any](p Paging, list []T) Page[T] {
	p = p.normalized()
	if list == nil {
		list = []T{}
	}
	return Page[T]{Page: p.Page, Next: len(list) >= p.Limit, List: list}
}
