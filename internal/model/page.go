package model

import "encoding/json"

// PageRequest selects one page of a list endpoint. Page numbers start at 1.
type PageRequest struct {
	Number int `json:"pageNumber"`
	Size   int `json:"pageSize"`
}

// Normalize clamps the request to valid values, using defaultSize when Size is unset.
func (p PageRequest) Normalize(defaultSize int) PageRequest {
	if defaultSize <= 0 {
		defaultSize = 20
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = defaultSize
	}
	return p
}

// Page is the pagination envelope nested inside every list response.
type Page[T any] struct {
	Items           []T  `json:"items"`
	PageNumber      int  `json:"pageNumber"`
	PageSize        int  `json:"pageSize"`
	TotalPages      int  `json:"totalPages"`
	TotalCount      int  `json:"totalCount"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	HasNextPage     bool `json:"hasNextPage"`
}

// UnmarshalJSON accepts both "totalCount" and the older "total" field.
func (p *Page[T]) UnmarshalJSON(b []byte) error {
	var w struct {
		Items           []T  `json:"items"`
		PageNumber      int  `json:"pageNumber"`
		PageSize        int  `json:"pageSize"`
		TotalPages      int  `json:"totalPages"`
		TotalCount      *int `json:"totalCount"`
		Total           *int `json:"total"`
		HasPreviousPage bool `json:"hasPreviousPage"`
		HasNextPage     bool `json:"hasNextPage"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*p = Page[T]{
		Items:           w.Items,
		PageNumber:      w.PageNumber,
		PageSize:        w.PageSize,
		TotalPages:      w.TotalPages,
		HasPreviousPage: w.HasPreviousPage,
		HasNextPage:     w.HasNextPage,
	}
	switch {
	case w.TotalCount != nil:
		p.TotalCount = *w.TotalCount
	case w.Total != nil:
		p.TotalCount = *w.Total
	}
	return nil
}

// Normalize makes the envelope self-consistent with the request it answers:
// items never exceed pageSize, totalPages is derived from totalCount, and
// the has-next/previous flags follow from the page number.
func (p Page[T]) Normalize(req PageRequest) Page[T] {
	if p.PageNumber < 1 {
		p.PageNumber = req.Number
	}
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 {
		p.PageSize = req.Size
	}
	if p.PageSize < 1 {
		p.PageSize = len(p.Items)
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	if p.PageSize > 0 && len(p.Items) > p.PageSize {
		p.Items = p.Items[:p.PageSize]
	}
	if p.TotalCount < 0 {
		p.TotalCount = 0
	}

	p.TotalPages = TotalPages(p.TotalCount, p.PageSize)
	p.HasNextPage = p.PageNumber < p.TotalPages
	p.HasPreviousPage = p.PageNumber > 1
	return p
}

// IsEmpty reports a zero-row page, which callers render as an empty state.
func (p Page[T]) IsEmpty() bool { return len(p.Items) == 0 }

// TotalPages is ceil(totalCount / pageSize), or 0 for an empty collection.
func TotalPages(totalCount, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}
