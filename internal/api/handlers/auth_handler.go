package handlers

import (
	"errors"
	"net/http"

	"github.com/markdave123-py/docsearch/internal/models"
	"github.com/markdave123-py/docsearch/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token exchanges form encoded username/password for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	var issues []ValidationIssue
	if username == "" {
		issues = append(issues, ValidationIssue{Loc: []any{"body", "username"}, Msg: "field required", Type: "value_error.missing"})
	}
	if password == "" {
		issues = append(issues, ValidationIssue{Loc: []any{"body", "password"}, Msg: "field required", Type: "value_error.missing"})
	}
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	user, err := h.auth.Authenticate(username, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(user.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.User{Username: username})
}
