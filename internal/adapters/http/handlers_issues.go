package httpadapter

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/core/watermark"
)

type issueRow struct {
	ID              int64    `json:"id"`
	Type            string   `json:"type"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Timestamp       *string  `json:"timestamp"`
	ExtractionError bool     `json:"extraction_error"`
	ImageURL        string   `json:"image_url"`
}

type issueListResponse struct {
	Draw            int        `json:"draw"`
	RecordsTotal    int        `json:"recordsTotal"`
	RecordsFiltered int        `json:"recordsFiltered"`
	Data            []issueRow `json:"data"`
}

type issueUpdateRequest struct {
	IssueTypeID      *int64   `json:"issue_type_id"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Timestamp        *string  `json:"timestamp"`
	ClearCoordinates bool     `json:"clear_coordinates"`
}

func (rt *Router) listIssues(w http.ResponseWriter, r *http.Request) {
	filter, err := parseIssueFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	items, err := rt.deps.Issues.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	draw, _ := strconv.Atoi(r.URL.Query().Get("draw"))
	rows := make([]issueRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, issueRow{
			ID:              item.ID,
			Type:            item.IssueTypeName,
			Latitude:        item.Latitude,
			Longitude:       item.Longitude,
			Timestamp:       formatTimestamp(item.Timestamp),
			ExtractionError: item.ExtractionError,
			ImageURL:        item.ImageURL,
		})
	}
	writeJSON(w, http.StatusOK, issueListResponse{
		Draw:            draw,
		RecordsTotal:    len(rows),
		RecordsFiltered: len(rows),
		Data:            rows,
	})
}

func (rt *Router) getIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	issue, err := rt.deps.Issues.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (rt *Router) updateIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req issueUpdateRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	patch := domain.IssuePatch{
		IssueTypeID:      req.IssueTypeID,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		ClearCoordinates: req.ClearCoordinates,
	}
	if req.Timestamp != nil && strings.TrimSpace(*req.Timestamp) != "" {
		ts, ok := parseTimestampInput(*req.Timestamp)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "timestamp must be YYYY-MM-DD HH:MM:SS or RFC 3339"})
			return
		}
		patch.Timestamp = &ts
	}

	issue, err := rt.deps.Issues.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (rt *Router) deleteIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := rt.deps.Issues.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reprocessIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := rt.deps.Issues.RequestReprocess(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"issue_id": id, "status": "queued"})
}

func (rt *Router) exportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := rt.deps.Issues.ExportXLSX(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "issues.xlsx", data)
}

func (rt *Router) exportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := rt.deps.Issues.ExportCSV(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", "issues.csv", data)
}

func (rt *Router) extractionErrors(w http.ResponseWriter, r *http.Request) {
	items, err := rt.deps.Issues.ListExtractionErrors(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Issue{}
	}
	writeJSON(w, http.StatusOK, items)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseIssueFilter reads issue_type, date_from and date_to (YYYY-MM-DD).
// date_to covers the whole day.
func parseIssueFilter(r *http.Request) (domain.IssueFilter, error) {
	query := r.URL.Query()
	var filter domain.IssueFilter

	if raw := strings.TrimSpace(query.Get("issue_type")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return filter, fmt.Errorf("invalid issue_type %q", raw)
		}
		filter.IssueTypeID = id
	}
	if raw := strings.TrimSpace(query.Get("date_from")); raw != "" {
		from, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return filter, fmt.Errorf("invalid date_from %q", raw)
		}
		filter.TimestampFrom = &from
	}
	if raw := strings.TrimSpace(query.Get("date_to")); raw != "" {
		day, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
		if err != nil {
			return filter, fmt.Errorf("invalid date_to %q", raw)
		}
		to := day.Add(24*time.Hour - time.Second)
		filter.TimestampTo = &to
	}
	return filter, nil
}

func parseTimestampInput(raw string) (time.Time, bool) {
	if ts, ok := watermark.ParseTimestamp(raw); ok {
		return ts, true
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

func formatTimestamp(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	s := ts.UTC().Format(domain.TimestampLayout)
	return &s
}
