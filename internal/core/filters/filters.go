// Package filters turns client metadata filters into a predicate tree
// understood by the page index.
package filters

import "github.com/markdave123-py/docsearch/internal/models"

type Operator string

const (
	OpAnd   Operator = "And"
	OpOr    Operator = "Or"
	OpEqual Operator = "Equal"
)

// Predicate is a boolean expression over page metadata.
// The zero value means no restriction.
type Predicate struct {
	Operator  Operator    `json:"operator,omitempty"`
	Operands  []Predicate `json:"operands,omitempty"`
	Path      []string    `json:"path,omitempty"`
	ValueText string      `json:"valueText,omitempty"`
}

// IsEmpty reports whether p places no constraint on retrieval.
func (p Predicate) IsEmpty() bool {
	return p.Operator == ""
}

// Build combines filters into AND(OR(Equal...)...). Filters without values
// are skipped; value order and filter order are preserved.
func Build(fs []models.Filter) Predicate {
	var groups []Predicate
	for _, f := range fs {
		if len(f.Values) == 0 {
			continue
		}
		group := Predicate{Operator: OpOr, Operands: make([]Predicate, 0, len(f.Values))}
		for _, v := range f.Values {
			group.Operands = append(group.Operands, Predicate{
				Operator:  OpEqual,
				Path:      []string{string(f.PropertyName)},
				ValueText: v,
			})
		}
		groups = append(groups, group)
	}
	if len(groups) == 0 {
		return Predicate{}
	}
	return Predicate{Operator: OpAnd, Operands: groups}
}

// Match evaluates p against a page's metadata.
func Match(p Predicate, meta models.PageMetadata) bool {
	switch p.Operator {
	case "":
		return true
	case OpAnd:
		for _, op := range p.Operands {
			if !Match(op, meta) {
				return false
			}
		}
		return true
	case OpOr:
		for _, op := range p.Operands {
			if Match(op, meta) {
				return true
			}
		}
		return false
	case OpEqual:
		if len(p.Path) != 1 {
			return false
		}
		return meta.Value(models.FilterProperty(p.Path[0])) == p.ValueText
	}
	return false
}
