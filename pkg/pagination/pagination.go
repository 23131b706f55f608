package pagination

import (
	"net/url"
	"strconv"
)

// PageRequest represents a client request for a window of data.
type PageRequest struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// Normalize adjusts the request to ensure valid skip/limit values based on the config.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Skip < 0 {
		r.Skip = 0
	}
	if r.Limit < 1 {
		r.Limit = cfg.DefaultLimit
	}
	if r.Limit > cfg.MaxLimit {
		r.Limit = cfg.MaxLimit
	}
}

// PageRequestFromQuery parses skip and limit from URL query values.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	skip, _ := strconv.Atoi(values.Get("skip"))
	limit, _ := strconv.Atoi(values.Get("limit"))

	req := PageRequest{
		Skip:  skip,
		Limit: limit,
	}

	req.Normalize(cfg)
	return req
}

// PageResult holds a window of data along with the unwindowed total.
type PageResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// NewPageResult creates a PageResult, normalizing nil item slices.
func NewPageResult[T any](items []T, total int, req PageRequest) PageResult[T] {
	if items == nil {
		items = []T{}
	}

	return PageResult[T]{
		Items: items,
		Total: total,
		Skip:  req.Skip,
		Limit: req.Limit,
	}
}
