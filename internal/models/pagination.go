package models

// PageRequest is a 1-based page of an owner's order history.
type PageRequest struct {
	Page int
	Size int
}

// Clamp fills a missing page or size and caps the size at maxSize. A
// non-positive maxSize leaves the size uncapped.
func (p PageRequest) Clamp(defaultSize, maxSize int) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}

	if p.Size < 1 {
		p.Size = defaultSize
	}

	if maxSize > 0 && p.Size > maxSize {
		p.Size = maxSize
	}

	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

type PaginatedResponse struct {
	Data       any  `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

func NewPage(data any, total int, req PageRequest) *PaginatedResponse {
	pages := 0
	if req.Size > 0 {
		pages = (total + req.Size - 1) / req.Size
	}

	return &PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.Size,
		TotalPages: pages,
		HasMore:    req.Page < pages,
	}
}
