package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	appMiddleware "github.com/markdave123-py/docsearch/internal/api/middlewares"
	"github.com/markdave123-py/docsearch/internal/core"
	"github.com/markdave123-py/docsearch/internal/observability"
)

// ValidationIssue is one field-level problem reported with a 422.
type ValidationIssue struct {
	Loc   []any  `json:"loc"`
	Msg   string `json:"msg"`
	Type  string `json:"type"`
	Input any    `json:"input,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

// writeError maps domain errors to status codes and logs the rest.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observability.LoggerFromContext(r.Context())

	var aerr *core.AnsweringError
	if errors.As(err, &aerr) {
		writeDetail(w, http.StatusBadRequest, aerr.Error())
		return
	}
	if errors.Is(err, core.ErrConversationNotFound) {
		log.Error("conversation missing for append", "error", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if core.IsTransient(err) {
		log.Warn("transient infrastructure error", "transient", true, "error", err)
	} else {
		log.Error("request failed", "error", err)
	}
	writeDetail(w, http.StatusInternalServerError, "Internal server error")
}

// requireUser reads the authenticated username or answers 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	u, ok := appMiddleware.UsernameFromContext(r.Context())
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
	}
	return u, ok
}
