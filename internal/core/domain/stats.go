package domain

type Summary struct {
	TotalIssues           int `json:"total_issues"`
	SuccessfulExtractions int `json:"successful_extractions"`
	FailedExtractions     int `json:"failed_extractions"`
	RecentIssues          int `json:"recent_issues"`
}

type TypeBreakdown struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

type Dataset struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
}

type Timeline struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Marker struct {
	ID        int64   `json:"id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Type      string  `json:"type"`
	Timestamp *string `json:"timestamp"`
	ImageURL  string  `json:"image_url"`
	Cell      string  `json:"cell,omitempty"`
}

type CellCount struct {
	Cell  string  `json:"cell"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Count int     `json:"count"`
}
