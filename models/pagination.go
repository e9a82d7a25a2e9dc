package models

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PaginationQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy string `form:"sort_by"`
	Order  string `form:"order" binding:"omitempty,oneof=asc desc"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type PaginatedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PageRequest is a validated page of a sorted listing. SortBy is always a whitelisted column.
type PageRequest struct {
	Page   int
	Limit  int
	SortBy string
	Desc   bool
}

func (r PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

func (r PageRequest) OrderClause() string {
	if r.Desc {
		return r.SortBy + " desc"
	}
	return r.SortBy + " asc"
}

// Normalize applies defaults and falls back to defaultSort when SortBy is not one of allowed.
func (q PaginationQuery) Normalize(defaultSort string, allowed ...string) PageRequest {
	r := PageRequest{Page: q.Page, Limit: q.Limit, SortBy: defaultSort, Desc: q.Order != "asc"}
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	for _, col := range allowed {
		if q.SortBy == col {
			r.SortBy = col
			break
		}
	}
	return r
}

func (r PageRequest) Pagination(total int64) Pagination {
	return Pagination{Page: r.Page, Limit: r.Limit, Total: total}
}
