package model

// Pagination is the metadata block attached to listing responses.
// Reaction listings carry last_page (the client renders a pager); comment
// listings carry has_more (the client infinite-scrolls).
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page,omitempty"`
	HasMore     bool `json:"has_more"`
}
