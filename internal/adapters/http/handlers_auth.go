package httpadapter

import (
	"log/slog"
	"net/http"
)

type credentialsRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (rt *Router) setupStatus(w http.ResponseWriter, r *http.Request) {
	needed, err := rt.deps.Auth.SetupNeeded(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"setup_needed": needed})
}

func (rt *Router) setup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	user, err := rt.deps.Auth.Setup(r.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	sessionID, principal, err := rt.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     rt.opts.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(rt.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   rt.opts.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, principal)
}

func (rt *Router) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(rt.opts.SessionCookieName); err == nil && cookie.Value != "" {
		if err := rt.deps.Auth.Logout(r.Context(), cookie.Value); err != nil {
			slog.Warn("logout_failed",
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     rt.opts.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   rt.opts.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	writeJSON(w, http.StatusOK, principal)
}
