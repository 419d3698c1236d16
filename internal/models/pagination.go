package models

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest is a normalised one-based page selection.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps raw page parameters into a usable request.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Offset returns the number of records skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination describes the page returned alongside a result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes page metadata for a result set of total records.
func NewPagination(req PageRequest, total int64) Pagination {
	pages := 0
	if total > 0 && req.Limit > 0 {
		pages = int((total + int64(req.Limit) - 1) / int64(req.Limit))
	}
	return Pagination{Page: req.Page, Limit: req.Limit, Total: total, TotalPages: pages}
}

// CommentPage is one page of a video's comments, newest first.
type CommentPage struct {
	Comments []CommentView `json:"comments"`
	Pagination
}

// VideoSort names the sortable video fields.
type VideoSort string

const (
	VideoSortCreatedAt VideoSort = "createdAt"
	VideoSortViews     VideoSort = "views"
	VideoSortDuration  VideoSort = "duration"
	VideoSortTitle     VideoSort = "title"
)

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	PageRequest
	Text      string
	SortBy    VideoSort
	Ascending bool
	OwnerID   string
	// IncludeUnpublished is only honoured together with OwnerID.
	IncludeUnpublished bool
}

// VideoPage is one page of a video listing.
type VideoPage struct {
	Videos []Video `json:"videos"`
	Pagination
}
