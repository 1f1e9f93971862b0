package issues

// Filter narrows an issue listing. Empty fields match everything.
type Filter struct {
	Severity string
	Category string
	File     string
}

// Page represents a paginated response with data and metadata
type Page struct {
	Data       []*Issue `json:"data"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Total      int64    `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
}

// FileCount is the number of issues reported against one file.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}
