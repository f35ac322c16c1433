package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// User is the authenticated principal resolved from a bearer token.
type User struct {
	Username string `json:"username"`
}

// Source points an answer back at the page it was drawn from.
// Page is zero-based; it is only shifted by one when rendered for the model.
type Source struct {
	ISIN      string  `json:"isin"`
	Shortname string  `json:"shortname"`
	Link      string  `json:"link"`
	Page      int     `json:"page"`
	Certainty float64 `json:"certainty"`
	Distance  float64 `json:"distance"`
}

// Message is one immutable entry of a conversation.
type Message struct {
	Role    Role     `json:"role"`
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Conversation is an ordered log of messages owned by a single user.
type Conversation struct {
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// MarshalJSON keeps an empty conversation encoded as [] rather than null.
func (c Conversation) MarshalJSON() ([]byte, error) {
	type alias Conversation
	out := alias(c)
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	return json.Marshal(out)
}

// Clone returns a deep copy so stores never share slices with callers.
func (c Conversation) Clone() Conversation {
	out := Conversation{CreatedAt: c.CreatedAt, Messages: make([]Message, len(c.Messages))}
	for i, m := range c.Messages {
		out.Messages[i] = m.Clone()
	}
	return out
}

func (m Message) Clone() Message {
	if m.Sources != nil {
		m.Sources = append([]Source(nil), m.Sources...)
	}
	return m
}

// Exchange is a question/answer pair derived from a conversation.
type Exchange struct {
	Question string
	Answer   string
}

// FilterProperty names a metadata field that clients may filter on.
type FilterProperty string

const (
	PropertyISIN       FilterProperty = "isin"
	PropertyIssuerName FilterProperty = "issuer_name"
	PropertyFilename   FilterProperty = "filename"
	PropertyIndustry   FilterProperty = "industry"
	PropertyRiskType   FilterProperty = "risk_type"
	PropertyGreen      FilterProperty = "green"
)

// FilterProperties lists every filterable property in a stable order.
var FilterProperties = []FilterProperty{
	PropertyISIN,
	PropertyIssuerName,
	PropertyFilename,
	PropertyIndustry,
	PropertyRiskType,
	PropertyGreen,
}

// ParseFilterProperty validates a client supplied property name.
func ParseFilterProperty(s string) (FilterProperty, error) {
	for _, p := range FilterProperties {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown filter property %q", s)
}

// Filter restricts retrieval to passages whose property equals any of Values.
type Filter struct {
	PropertyName FilterProperty `json:"property_name"`
	Values       []string       `json:"values"`
}

// PageMetadata is the fixed metadata record attached to every ingested page.
type PageMetadata struct {
	Link       string `json:"link"`
	Shortname  string `json:"shortname"`
	ISIN       string `json:"isin"`
	IssuerName string `json:"issuer_name"`
	Filename   string `json:"filename"`
	Industry   string `json:"industry"`
	RiskType   string `json:"risk_type"`
	Green      string `json:"green"`
}

// Value returns the metadata value stored under a filter property.
func (m PageMetadata) Value(p FilterProperty) string {
	switch p {
	case PropertyISIN:
		return m.ISIN
	case PropertyIssuerName:
		return m.IssuerName
	case PropertyFilename:
		return m.Filename
	case PropertyIndustry:
		return m.Industry
	case PropertyRiskType:
		return m.RiskType
	case PropertyGreen:
		return m.Green
	}
	return ""
}

// DocumentPage is one page of an ingested document, ready to be embedded.
type DocumentPage struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Page      int          `json:"page"`
	Source    string       `json:"source"`
	Metadata  PageMetadata `json:"metadata"`
	Embedding []float32    `json:"-"`
}

// Passage is a page returned by a similarity search.
type Passage struct {
	Content   string
	Page      int
	Source    string
	Metadata  PageMetadata
	Certainty float64
	Distance  float64
}

// Answer is the result of one pipeline run.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// IndexProperty describes one column of the page index and whether it feeds the embedding.
type IndexProperty struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	Vectorized bool   `json:"vectorized"`
}

// IndexSchema is the property layout of the page index.
var IndexSchema = []IndexProperty{
	{Name: "text", DataType: "text", Vectorized: true},
	{Name: "page", DataType: "int", Vectorized: false},
	{Name: "source", DataType: "text", Vectorized: false},
	{Name: "link", DataType: "text", Vectorized: false},
	{Name: "shortname", DataType: "text", Vectorized: true},
	{Name: "isin", DataType: "text", Vectorized: false},
	{Name: "issuer_name", DataType: "text", Vectorized: true},
	{Name: "filename", DataType: "text", Vectorized: false},
	{Name: "industry", DataType: "text", Vectorized: true},
	{Name: "risk_type", DataType: "text", Vectorized: false},
	{Name: "green", DataType: "text", Vectorized: false},
}
