package db

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/docsearch/internal/core/filters"
	"github.com/markdave123-py/docsearch/internal/models"
)

// metadataColumns maps filterable properties to page table columns.
var metadataColumns = map[models.FilterProperty]string{
	models.PropertyISIN:       "isin",
	models.PropertyIssuerName: "issuer_name",
	models.PropertyFilename:   "filename",
	models.PropertyIndustry:   "industry",
	models.PropertyRiskType:   "risk_type",
	models.PropertyGreen:      "green",
}

// renderWhere turns a predicate into a SQL boolean expression. Values are
// appended to args and referenced by position; an empty predicate renders
// as TRUE.
func renderWhere(p filters.Predicate, args []any) (string, []any, error) {
	switch p.Operator {
	case "":
		return "TRUE", args, nil
	case filters.OpAnd, filters.OpOr:
		if len(p.Operands) == 0 {
			return "", args, fmt.Errorf("%s predicate without operands", p.Operator)
		}
		parts := make([]string, 0, len(p.Operands))
		for _, op := range p.Operands {
			var (
				s   string
				err error
			)
			s, args, err = renderWhere(op, args)
			if err != nil {
				return "", args, err
			}
			parts = append(parts, s)
		}
		joiner := " AND "
		if p.Operator == filters.OpOr {
			joiner = " OR "
		}
		return "(" + strings.Join(parts, joiner) + ")", args, nil
	case filters.OpEqual:
		if len(p.Path) != 1 {
			return "", args, fmt.Errorf("equality path must have one element, got %v", p.Path)
		}
		col, ok := metadataColumns[models.FilterProperty(p.Path[0])]
		if !ok {
			return "", args, fmt.Errorf("unknown filter property %q", p.Path[0])
		}
		args = append(args, p.ValueText)
		return fmt.Sprintf("%s = $%d", col, len(args)), args, nil
	}
	return "", args, fmt.Errorf("unsupported operator %q", p.Operator)
}
