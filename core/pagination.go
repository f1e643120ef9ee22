package core

const (
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// PageRequest is a 1-based page selection.
type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest clamps page and perPage to their allowed ranges.
func NewPageRequest(page, perPage int) PageRequest {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}

func (p PageRequest) Limit() int  { return p.PerPage }
func (p PageRequest) Offset() int { return (p.Page - 1) * p.PerPage }

type PageMeta struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"perPage"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func NewPageMeta(total int, p PageRequest) PageMeta {
	totalPages := 0
	if p.PerPage > 0 {
		totalPages = (total + p.PerPage - 1) / p.PerPage
	}
	return PageMeta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
		HasPrev:    p.Page > 1,
	}
}

// ListOptions carries paging and ordering for repository queries.
type ListOptions struct {
	Page     PageRequest
	Ordering []DBOrdering
}

// AllRows selects every row in the default order.
var AllRows = ListOptions{Page: PageRequest{Page: 1, PerPage: 0}}

func (o ListOptions) Paginated() bool { return o.Page.PerPage > 0 }
