package domain

import "time"

// ExtractionErrorMessage is attached to issues stored without usable coordinates.
const ExtractionErrorMessage = "Failed to extract GPS coordinates"

// TimestampLayout is the normalized calendar form of watermark timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

type ExtractionOutcome string

const (
	OutcomeParsed        ExtractionOutcome = "parsed"
	OutcomeEmptyResponse ExtractionOutcome = "empty_response"
	OutcomeServiceError  ExtractionOutcome = "service_error"
	OutcomeExifFallback  ExtractionOutcome = "exif_fallback"
)

// ExtractionResult is the outcome of processing one image. Latitude and
// Longitude are either both set or both nil.
type ExtractionResult struct {
	Latitude  *float64          `json:"latitude"`
	Longitude *float64          `json:"longitude"`
	Timestamp *time.Time        `json:"timestamp"`
	Location  *string           `json:"location,omitempty"`
	RawText   *string           `json:"raw_text"`
	Outcome   ExtractionOutcome `json:"outcome"`
}

func (r ExtractionResult) Located() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type Issue struct {
	ID                int64      `json:"id"`
	IssueTypeID       int64      `json:"issue_type_id"`
	IssueTypeName     string     `json:"type"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	Timestamp         *time.Time `json:"timestamp"`
	ImageURL          string     `json:"image_url"`
	ImagePath         string     `json:"image_path"`
	ExtractionError   bool       `json:"extraction_error"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	RawExtractionText *string    `json:"raw_extraction_text,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ApplyExtraction copies the extracted fields onto the issue and derives the
// error flag from them.
func (i *Issue) ApplyExtraction(res ExtractionResult) {
	i.Latitude = res.Latitude
	i.Longitude = res.Longitude
	i.Timestamp = res.Timestamp
	i.RawExtractionText = res.RawText
	i.ExtractionError = !res.Located()
	i.ErrorMessage = ""
	if i.ExtractionError {
		i.ErrorMessage = ExtractionErrorMessage
	}
}

type IssueType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type IssueOrder int

const (
	OrderNewestFirst IssueOrder = iota
	OrderByTimestamp
)

// IssueFilter narrows issue listings and counts. Zero values mean "no filter".
type IssueFilter struct {
	IssueTypeID     int64
	TimestampFrom   *time.Time
	TimestampTo     *time.Time
	CreatedSince    *time.Time
	ExtractionError *bool
	Order           IssueOrder
}

// IssuePatch is a manual correction of an issue. Nil fields are left untouched
// unless ClearCoordinates is set.
type IssuePatch struct {
	IssueTypeID      *int64     `json:"issue_type_id"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Timestamp        *time.Time `json:"timestamp"`
	ClearCoordinates bool       `json:"clear_coordinates"`
}

type StoredObject struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
