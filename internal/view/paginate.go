package view

import "github.com/propgrid/propgrid/pkg/types"

// TotalPages returns max(1, ceil(total / pageSize)). pageSize must be positive.
func TotalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage limits page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// paginate slices one page out of rows and fills the page metadata of res.
func paginate(rows []types.Row, pageSize, requested int, res *Result) {
	total := len(rows)
	pages := TotalPages(total, pageSize)
	page := ClampPage(requested, pages)

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	res.TotalFiltered = total
	res.TotalPages = pages
	res.CurrentPage = page
	res.PageSize = pageSize
	res.HasPrev = page > 1
	res.HasNext = page < pages

	if start >= end {
		res.Rows = []types.Row{}
		return
	}
	res.Rows = rows[start:end:end]
	res.FirstItem = start + 1
	res.LastItem = end
}
