package httpadapter

import (
	"net/http"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

func (rt *Router) mapMarkers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseIssueFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	markers, err := rt.deps.Map.Markers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if markers == nil {
		markers = []domain.Marker{}
	}
	writeJSON(w, http.StatusOK, markers)
}

func (rt *Router) mapCells(w http.ResponseWriter, r *http.Request) {
	filter, err := parseIssueFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	cells, err := rt.deps.Map.Cells(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cells == nil {
		cells = []domain.CellCount{}
	}
	writeJSON(w, http.StatusOK, cells)
}

func (rt *Router) statsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := rt.deps.Stats.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) statsByType(w http.ResponseWriter, r *http.Request) {
	breakdown, err := rt.deps.Stats.ByType(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (rt *Router) statsTimeline(w http.ResponseWriter, r *http.Request) {
	timeline, err := rt.deps.Stats.Timeline(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline)
}
