package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/ports"
	"github.com/kirillkom/civic-issues/internal/observability/metrics"
)

type Dependencies struct {
	Auth       ports.Authenticator
	Users      ports.UserAdministrator
	Issues     ports.IssueService
	IssueTypes ports.IssueTypeCatalog
	Uploader   ports.BatchUploader
	Stats      ports.StatisticsService
	Map        ports.MapService

	// Media serves locally stored images under /media/. Nil when images live
	// in object storage with their own public URLs.
	Media   http.Handler
	Metrics *metrics.HTTPServerMetrics
}

type Options struct {
	SessionCookieName   string
	SessionCookieSecure bool
	SessionTTL          time.Duration
	MaxUploadBytes      int64
	LoginRateLimitRPS   float64
	LoginRateLimitBurst int
}

type Router struct {
	deps         Dependencies
	opts         Options
	loginLimiter *ipRateLimiter
}

func NewRouter(deps Dependencies, opts Options) *Router {
	if opts.SessionCookieName == "" {
		opts.SessionCookieName = "civic_session"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	return &Router{
		deps:         deps,
		opts:         opts,
		loginLimiter: newIPRateLimiter(opts.LoginRateLimitRPS, opts.LoginRateLimitBurst),
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
	}
	if rt.deps.Media != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", rt.deps.Media))
	}

	mux.HandleFunc("GET /auth/setup", rt.setupStatus)
	mux.HandleFunc("POST /auth/setup", rt.setup)
	mux.HandleFunc("POST /auth/login", rateLimitMiddleware(rt.loginLimiter, rt.login))
	mux.HandleFunc("POST /auth/logout", rt.logout)
	mux.HandleFunc("GET /auth/me", requireLogin(rt.me))

	mux.HandleFunc("GET /issues/api/list", requireLogin(rt.listIssues))
	mux.HandleFunc("GET /issues/export.xlsx", requireLogin(rt.exportXLSX))
	mux.HandleFunc("GET /issues/export.csv", requireLogin(rt.exportCSV))
	mux.HandleFunc("GET /issues/{id}", requireLogin(rt.getIssue))
	mux.HandleFunc("PUT /issues/{id}", requireLogin(rt.updateIssue))
	mux.HandleFunc("DELETE /issues/{id}", requireLogin(rt.deleteIssue))
	mux.HandleFunc("POST /issues/{id}/reprocess", requireAdmin(rt.reprocessIssue))

	mux.HandleFunc("POST /upload", requireLogin(rt.upload))
	mux.HandleFunc("GET /upload/errors", requireLogin(rt.extractionErrors))
	mux.HandleFunc("GET /upload/issue-types", requireLogin(rt.activeIssueTypes))

	mux.HandleFunc("GET /map/api/markers", requireLogin(rt.mapMarkers))
	mux.HandleFunc("GET /map/api/cells", requireLogin(rt.mapCells))

	mux.HandleFunc("GET /statistics/api/summary", requireLogin(rt.statsSummary))
	mux.HandleFunc("GET /statistics/api/by-type", requireLogin(rt.statsByType))
	mux.HandleFunc("GET /statistics/api/timeline", requireLogin(rt.statsTimeline))

	mux.HandleFunc("GET /admin/issue-types", requireAdmin(rt.listIssueTypes))
	mux.HandleFunc("POST /admin/issue-types", requireAdmin(rt.createIssueType))
	mux.HandleFunc("PUT /admin/issue-types/{id}", requireAdmin(rt.updateIssueType))
	mux.HandleFunc("DELETE /admin/issue-types/{id}", requireAdmin(rt.deleteIssueType))
	mux.HandleFunc("GET /admin/users", requireAdmin(rt.listUsers))
	mux.HandleFunc("POST /admin/users", requireAdmin(rt.createUser))
	mux.HandleFunc("PUT /admin/users/{id}", requireAdmin(rt.updateUser))
	mux.HandleFunc("DELETE /admin/users/{id}", requireAdmin(rt.deleteUser))

	var handler http.Handler = mux
	handler = sessionMiddleware(rt.deps.Auth, rt.opts.SessionCookieName, handler)
	handler = accessLogMiddleware(handler)
	if rt.deps.Metrics != nil {
		handler = rt.deps.Metrics.Middleware("api", handler)
	}
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(dst) == nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
