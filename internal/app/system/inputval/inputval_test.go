package inputval

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	type addWidgetInput struct {
		Title  string `json:"title" validate:"max=20" label:"Title"`
		Type   string `json:"widgetType" validate:"required,widgettype" label:"Widget type"`
		Source string `json:"source" validate:"required,datasource" label:"Data source"`
		Field  string `json:"field" validate:"required" label:"Field"`
	}

	tests := []struct {
		name      string
		input     addWidgetInput
		wantField string
	}{
		{"valid", addWidgetInput{Type: "line-chart", Source: "traffic", Field: "visits"}, ""},
		{"missing type", addWidgetInput{Source: "traffic", Field: "visits"}, "widgetType"},
		{"unknown type", addWidgetInput{Type: "treemap", Source: "traffic", Field: "visits"}, "widgetType"},
		{"unknown source", addWidgetInput{Type: "table", Source: "weather", Field: "temp"}, "source"},
		{"missing field", addWidgetInput{Type: "table", Source: "seo"}, "field"},
		{"long title", addWidgetInput{Title: strings.Repeat("x", 21), Type: "table", Source: "seo", Field: "rank"}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if tt.wantField == "" {
				if res.HasErrors() {
					t.Errorf("Validate() errors = %v, want none", res.Fields())
				}
				return
			}
			if !res.HasErrors() {
				t.Fatalf("Validate() no errors, want one on %s", tt.wantField)
			}
			if _, ok := res.Fields()[tt.wantField]; !ok {
				t.Errorf("Validate() fields = %v, want key %s", res.Fields(), tt.wantField)
			}
		})
	}
}

func TestValidate_EnumRules(t *testing.T) {
	type metaInput struct {
		Visibility string `json:"visibility" validate:"required,visibility" label:"Visibility"`
		Range      string `json:"range" validate:"required,timerange" label:"Time range"`
		Compact    string `json:"compactType" validate:"required,compacttype" label:"Compact type"`
		Mode       string `json:"mode" validate:"required,sessionmode" label:"Mode"`
	}

	ok := metaInput{Visibility: "team", Range: "90d", Compact: "horizontal", Mode: "edit"}
	if res := Validate(ok); res.HasErrors() {
		t.Errorf("Validate(valid) = %v", res.Fields())
	}

	bad := []metaInput{
		{Visibility: "everyone", Range: "90d", Compact: "none", Mode: "new"},
		{Visibility: "team", Range: "1y", Compact: "none", Mode: "new"},
		{Visibility: "team", Range: "7d", Compact: "diagonal", Mode: "new"},
		{Visibility: "team", Range: "7d", Compact: "none", Mode: "view"},
	}
	for _, in := range bad {
		if res := Validate(in); !res.HasErrors() {
			t.Errorf("Validate(%+v) no errors, want one", in)
		}
	}
}

func TestValidate_ListRules(t *testing.T) {
	type listQuery struct {
		Sort      string `json:"sort" validate:"listsort" label:"Sort"`
		Templates string `json:"templates" validate:"templatefilter" label:"Templates"`
	}

	for _, q := range []listQuery{{}, {Sort: "name"}, {Sort: "created", Templates: "only"}, {Templates: "exclude"}} {
		if res := Validate(q); res.HasErrors() {
			t.Errorf("Validate(%+v) = %v, want no errors", q, res.Fields())
		}
	}

	res := Validate(listQuery{Sort: "size"})
	if got := res.Fields()["sort"]; got != "Sort must be one of: updated, created, name." {
		t.Errorf("sort message = %q", got)
	}
	if res := Validate(listQuery{Templates: "all"}); !res.HasErrors() {
		t.Error("Validate(templates=all) no errors, want one")
	}
}

func TestValidate_Messages(t *testing.T) {
	type input struct {
		Name string `json:"name" validate:"required" label:"Dashboard name"`
	}
	res := Validate(input{})
	if got := res.First(); got != "Dashboard name is required." {
		t.Errorf("First() = %q", got)
	}

	type noLabel struct {
		Name string `validate:"required"`
	}
	if got := Validate(noLabel{}).First(); got != "Name is required." {
		t.Errorf("First() without label = %q", got)
	}

	type ranged struct {
		Range string `json:"range" validate:"required,timerange" label:"Range"`
	}
	if got := Validate(ranged{Range: "5y"}).First(); got != "Range must be one of: 7d, 30d, 90d, 12m." {
		t.Errorf("timerange message = %q", got)
	}
}

func TestResult(t *testing.T) {
	r := &Result{}
	if r.HasErrors() || r.First() != "" || len(r.Fields()) != 0 {
		t.Errorf("empty Result = %+v", r)
	}

	r = &Result{Errors: []FieldError{
		{Field: "name", Label: "Name", Message: "Name is required."},
		{Field: "visibility", Label: "Visibility", Message: "Visibility is invalid."},
	}}
	if got, want := r.First(), "Name is required."; got != want {
		t.Errorf("First() = %q, want %q", got, want)
	}
	if got := r.Fields()["visibility"]; got != "Visibility is invalid." {
		t.Errorf("Fields()[visibility] = %q", got)
	}
}

func TestValidate_PointerAndNonStruct(t *testing.T) {
	type input struct {
		Name string `validate:"required"`
	}
	if res := Validate(&input{Name: "x"}); res.HasErrors() {
		t.Errorf("Validate(pointer) = %v", res.Fields())
	}
	if res := Validate("not a struct"); res == nil {
		t.Error("Validate(non-struct) = nil")
	}
}
