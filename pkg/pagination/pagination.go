package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// PageInfo is the pagination block returned next to list payloads.
type PageInfo struct {
	Page            int   `json:"page"`
	Limit           int   `json:"limit"`
	TotalCount      int64 `json:"total_count"`
	TotalPages      int   `json:"total_pages"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	return NormalizeLimitWithDefault(limit, DefaultLimit)
}

// NormalizeLimitWithDefault is NormalizeLimit for listings with their own page size.
func NormalizeLimitWithDefault(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps page to >= 1 and the limit into range.
func (p Params) Normalize(defaultLimit int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	p.Limit = NormalizeLimitWithDefault(p.Limit, defaultLimit)
	return p
}

// Offset is the number of rows to skip for the page.
func (p Params) Offset() int {
	if p.Page < 1 || p.Limit <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// NewPageInfo derives page counts from the total row count.
func NewPageInfo(p Params, total int64) PageInfo {
	totalPages := 0
	if p.Limit > 0 {
		totalPages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return PageInfo{
		Page:            p.Page,
		Limit:           p.Limit,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasNextPage:     p.Page < totalPages,
		HasPreviousPage: p.Page > 1,
	}
}
