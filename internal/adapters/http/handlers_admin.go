package httpadapter

import (
	"net/http"

	"github.com/kirillkom/civic-issues/internal/core/domain"
)

type issueTypeRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

func (req issueTypeRequest) active() bool {
	return req.Active == nil || *req.Active
}

type userRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
	Active   *bool       `json:"active"`
}

func (req userRequest) input() domain.UserInput {
	return domain.UserInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Active:   req.Active == nil || *req.Active,
	}
}

func (rt *Router) listIssueTypes(w http.ResponseWriter, r *http.Request) {
	items, err := rt.deps.IssueTypes.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.IssueType{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (rt *Router) createIssueType(w http.ResponseWriter, r *http.Request) {
	var req issueTypeRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	item, err := rt.deps.IssueTypes.Create(r.Context(), req.Name, req.active())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (rt *Router) updateIssueType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req issueTypeRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	item, err := rt.deps.IssueTypes.Update(r.Context(), id, req.Name, req.active())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (rt *Router) deleteIssueType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := rt.deps.IssueTypes.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rt.deps.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (rt *Router) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	user, err := rt.deps.Users.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (rt *Router) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req userRequest
	if !decodeJSON(r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	actor, _ := PrincipalFromContext(r.Context())
	user, err := rt.deps.Users.Update(r.Context(), actor, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (rt *Router) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	actor, _ := PrincipalFromContext(r.Context())
	if err := rt.deps.Users.Delete(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
