package shared

// DefaultPageSize is used when a list request does not name a page size
const DefaultPageSize = 20

// Filter narrows and pages a list query. An empty OrderBy lets each repository use its own
// natural order.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter returns the first page, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: DefaultPageSize, OrderDir: "desc"}
}

// Offset returns the number of rows before the filter's page
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
