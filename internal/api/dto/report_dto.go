package dto

// DashboardResponse summarizes the caller's issues.
type DashboardResponse struct {
	Total      int             `json:"total"`
	ByStatus   map[string]int  `json:"byStatus"`
	ByPriority map[string]int  `json:"byPriority"`
	Critical   int             `json:"critical"`
	Recent     []IssueResponse `json:"recent"`
}

// DayCountResponse is one point of the daily series.
type DayCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatusCountResponse is one bucket of the status breakdown.
type StatusCountResponse struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// RangeReportResponse is the JSON form of a date range report.
type RangeReportResponse struct {
	Start          string                `json:"start"`
	End            string                `json:"end"`
	Total          int                   `json:"total"`
	Resolved       int                   `json:"resolved"`
	Open           int                   `json:"open"`
	ResolutionRate int                   `json:"resolutionRate"`
	Daily          []DayCountResponse    `json:"daily"`
	Statuses       []StatusCountResponse `json:"statuses"`
	Issues         []IssueResponse       `json:"issues"`
}

// CategoryResponse is one category with its subcategories.
type CategoryResponse struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"subCategories"`
}

// CatalogResponse exposes the fixed form option lists.
type CatalogResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Places     []string           `json:"places"`
	Branches   []string           `json:"branches"`
	Statuses   []string           `json:"statuses"`
	Priorities []string           `json:"priorities"`
	Roles      []string           `json:"roles"`
}
