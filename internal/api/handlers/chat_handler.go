package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/markdave123-py/docsearch/internal/models"
	"github.com/markdave123-py/docsearch/internal/services"
)

type ChatHandler struct {
	chatbot *services.ChatbotService
}

func NewChatHandler(chatbot *services.ChatbotService) *ChatHandler {
	return &ChatHandler{chatbot: chatbot}
}

type filterRequest struct {
	PropertyName string   `json:"property_name"`
	CamelName    string   `json:"propertyName"`
	Values       []string `json:"values"`
}

type ChatRequest struct {
	Question string          `json:"question"`
	Filters  []filterRequest `json:"filters"`
}

// validate converts the request into domain filters, collecting every
// field-level problem.
func (req ChatRequest) validate() ([]models.Filter, []ValidationIssue) {
	var issues []ValidationIssue
	if strings.TrimSpace(req.Question) == "" {
		issues = append(issues, ValidationIssue{Loc: []any{"body", "question"}, Msg: "field required", Type: "value_error.missing"})
	}

	permitted := make([]string, len(models.FilterProperties))
	for i, p := range models.FilterProperties {
		permitted[i] = fmt.Sprintf("'%s'", p)
	}

	fs := make([]models.Filter, 0, len(req.Filters))
	for i, f := range req.Filters {
		name := f.PropertyName
		if name == "" {
			name = f.CamelName
		}
		prop, err := models.ParseFilterProperty(name)
		if err != nil {
			issues = append(issues, ValidationIssue{
				Loc:   []any{"body", "filters", i, "property_name"},
				Msg:   "value is not a valid enumeration member; permitted: " + strings.Join(permitted, ", "),
				Type:  "type_error.enum",
				Input: name,
			})
			continue
		}
		fs = append(fs, models.Filter{PropertyName: prop, Values: f.Values})
	}
	return fs, issues
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fs, issues := req.validate()
	if len(issues) > 0 {
		writeDetail(w, http.StatusUnprocessableEntity, issues)
		return
	}

	answer, err := h.chatbot.Ask(r.Context(), username, req.Question, fs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (h *ChatHandler) Filters(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	out, err := h.chatbot.AvailableFilters(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
