package models

// ReportFilter represents query parameters for the report tables
type ReportFilter struct {
	StartDate string `form:"startDate"` // YYYY-MM-DD, user timezone
	EndDate   string `form:"endDate"`   // YYYY-MM-DD, user timezone
	Timezone  string `form:"timezone"`  // optional preview override, validated
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	Order     string `form:"order"` // asc, desc
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// RangeFilter represents the date range parameters shared by read endpoints
type RangeFilter struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Timezone  string `form:"timezone"`
}

// PageResponse is the paginated envelope used by table endpoints
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}
