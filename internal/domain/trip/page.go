package trip

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a page of trips. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest clamps page and size to sane bounds.
func NewPageRequest(page, size int) PageRequest {
	r := PageRequest{Page: page, Size: size}
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size < 1 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Offset returns the row offset for a SQL OFFSET clause.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is a bounded slice of trips plus total-count metadata.
type Page struct {
	Items      []*Trip `json:"items"`
	Page       int     `json:"page"`
	Size       int     `json:"size"`
	TotalItems int64   `json:"total_items"`
	TotalPages int     `json:"total_pages"`
}

// NewPage assembles a Page and derives TotalPages from total.
func NewPage(items []*Trip, req PageRequest, total int64) Page {
	if items == nil {
		items = []*Trip{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: pages,
	}
}
