package pagination

// DefaultPageSize is used by listings that do not take a limit (matches, notifications).
const DefaultPageSize = 10

// Page is a normalised page/limit pair. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// New clamps page to >= 1 and limit to [1, maxLimit], falling back to def when limit <= 0.
//
// Example:
//
//	pagination.New(0, 500, 20, 100) // -> Page{Page: 1, Limit: 100}
func New(page, limit, def, maxLimit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns ceil(total/limit).
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}
