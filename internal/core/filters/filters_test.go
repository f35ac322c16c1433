package filters

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/markdave123-py/docsearch/internal/models"
)

func TestBuildEmpty(t *testing.T) {
	cases := map[string][]models.Filter{
		"nil":          nil,
		"empty":        {},
		"empty values": {{PropertyName: models.PropertyISIN}, {PropertyName: models.PropertyGreen, Values: []string{}}},
	}
	for name, fs := range cases {
		if p := Build(fs); !p.IsEmpty() {
			t.Errorf("%s: expected empty predicate, got %+v", name, p)
		}
	}
}

func TestBuildSingleFilterIsOrOfValues(t *testing.T) {
	p := Build([]models.Filter{{PropertyName: models.PropertyIndustry, Values: []string{"a", "b", "c"}}})
	if p.Operator != OpAnd || len(p.Operands) != 1 {
		t.Fatalf("expected one AND group, got %+v", p)
	}
	or := p.Operands[0]
	if or.Operator != OpOr || len(or.Operands) != 3 {
		t.Fatalf("expected OR of 3 clauses, got %+v", or)
	}
	for i, want := range []string{"a", "b", "c"} {
		c := or.Operands[i]
		if c.Operator != OpEqual || c.ValueText != want || !reflect.DeepEqual(c.Path, []string{"industry"}) {
			t.Errorf("clause %d = %+v", i, c)
		}
	}
}

func TestBuildSkipsEmptyFilters(t *testing.T) {
	p := Build([]models.Filter{
		{PropertyName: models.PropertyISIN, Values: nil},
		{PropertyName: models.PropertyIndustry, Values: []string{"Real Estate - Commercial"}},
	})
	if len(p.Operands) != 1 {
		t.Fatalf("expected exactly one OR group, got %d", len(p.Operands))
	}
	if got := p.Operands[0].Operands[0].Path[0]; got != "industry" {
		t.Fatalf("group path = %q", got)
	}
}

func TestBuildWireShape(t *testing.T) {
	p := Build([]models.Filter{{PropertyName: models.PropertyISIN, Values: []string{"NO1111111111"}}})
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"operator":"And","operands":[{"operator":"Or","operands":[{"operator":"Equal","path":["isin"],"valueText":"NO1111111111"}]}]}`
	if string(b) != want {
		t.Fatalf("got %s", b)
	}
	empty, _ := json.Marshal(Build(nil))
	if string(empty) != "{}" {
		t.Fatalf("empty predicate encoded as %s", empty)
	}
}

func TestMatch(t *testing.T) {
	meta := models.PageMetadata{ISIN: "NO1", Industry: "Energy", Green: "Yes"}
	p := Build([]models.Filter{
		{PropertyName: models.PropertyISIN, Values: []string{"NO2", "NO1"}},
		{PropertyName: models.PropertyGreen, Values: []string{"Yes"}},
	})
	if !Match(p, meta) {
		t.Fatal("expected match")
	}
	meta.Green = "No"
	if Match(p, meta) {
		t.Fatal("expected no match once a group fails")
	}
	if !Match(Predicate{}, meta) {
		t.Fatal("empty predicate must match everything")
	}
}
