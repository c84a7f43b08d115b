package response

// Pagination describes the window of a list response. The leaderboard serves
// a single capped page, so Page stays at 1 there; the shape leaves room for
// callers that page through larger collections.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
	HasMore    bool  `json:"has_more"`
	From       int   `json:"from"`
	To         int   `json:"to"`
}

// NewPagination builds the block for one page holding count items out of
// total. From and To are 1-based and both zero for an empty page.
func NewPagination(page, pageSize, count int, total int64) *Pagination {
	from, to := 0, 0
	if count > 0 {
		from = (page-1)*pageSize + 1
		to = from + count - 1
	}

	totalPages := int64(1)
	if pageSize > 0 && total > 0 {
		totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}

	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(to) < total,
		From:       from,
		To:         to,
	}
}
