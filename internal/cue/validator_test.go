package cue

import (
	"strings"
	"testing"

	"github.com/dotcommander/assesskit/internal/types"
)

func loadedValidator(t *testing.T) *Validator {
	t.Helper()
	v := NewValidator()
	if err := v.LoadSchemas(); err != nil {
		t.Fatalf("LoadSchemas failed: %v", err)
	}
	return v
}

func validAssessment() map[string]any {
	return map[string]any{
		"id":        "a-1",
		"name":      "Handle",
		"published": false,
		"actor":     map[string]any{"id": "6", "name": "PID Owner"},
		"subject":   map[string]any{"id": "s-1", "name": "Handle System", "type": "PID scheme"},
		"result":    map[string]any{"compliance": nil, "ranking": 0},
		"principles": []any{
			map[string]any{
				"id": "P1",
				"criteria": []any{
					map[string]any{
						"id":         "C1",
						"imperative": "MUST",
						"metric": map[string]any{
							"id":              "M1",
							"algorithm":       "single",
							"benchmark_value": 1,
							"value":           nil,
							"result":          nil,
							"tests": []any{
								map[string]any{"id": "T1", "type": "Binary-Binary", "result": nil},
							},
						},
					},
				},
			},
		},
	}
}

func TestNewValidator(t *testing.T) {
	v := NewValidator()
	if v.ctx == nil {
		t.Error("Validator.ctx is nil")
	}
	if len(v.schemas) != 0 {
		t.Errorf("Expected empty schemas map, got %d entries", len(v.schemas))
	}
}

func TestLoadSchemas(t *testing.T) {
	v := loadedValidator(t)
	for _, kind := range []string{types.KindAssessment, types.KindTemplate} {
		if !v.Loaded(kind) {
			t.Errorf("Expected schema %q to be loaded", kind)
		}
	}
}

func TestValidateAssessment(t *testing.T) {
	v := loadedValidator(t)

	tests := []struct {
		name      string
		mutate    func(map[string]any)
		wantError bool
	}{
		{name: "valid", mutate: func(map[string]any) {}},
		{
			name:   "extra presentation fields are allowed",
			mutate: func(d map[string]any) { d["color"] = "blue" },
		},
		{
			name:      "missing name",
			mutate:    func(d map[string]any) { delete(d, "name") },
			wantError: true,
		},
		{
			name:      "principles not a list",
			mutate:    func(d map[string]any) { d["principles"] = "none" },
			wantError: true,
		},
		{
			name: "negative test result",
			mutate: func(d map[string]any) {
				test(d)["result"] = -1
			},
			wantError: true,
		},
		{
			name: "answered test",
			mutate: func(d map[string]any) {
				test(d)["result"] = 1
			},
		},
		{
			name: "test without type",
			mutate: func(d map[string]any) {
				delete(test(d), "type")
			},
			wantError: true,
		},
		{
			name: "criterion without metric is left to the evaluator",
			mutate: func(d map[string]any) {
				delete(criterion(d), "metric")
			},
		},
		{
			name: "structured benchmark",
			mutate: func(d map[string]any) {
				m := criterion(d)["metric"].(map[string]any)
				delete(m, "benchmark_value")
				m["benchmark"] = map[string]any{"equal_greater_than": 70.5}
			},
		},
		{
			name: "benchmark threshold must be numeric",
			mutate: func(d map[string]any) {
				m := criterion(d)["metric"].(map[string]any)
				m["benchmark"] = map[string]any{"equal_greater_than": "seventy"}
			},
			wantError: true,
		},
		{
			name: "compliance must be bool or null",
			mutate: func(d map[string]any) {
				d["result"] = map[string]any{"compliance": "yes", "ranking": 0}
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := validAssessment()
			tt.mutate(data)
			issues, err := v.ValidateAssessment(data)
			if err != nil {
				t.Fatalf("ValidateAssessment() error = %v", err)
			}
			if hasErr := len(issues) > 0; hasErr != tt.wantError {
				t.Errorf("ValidateAssessment() issues = %v, wantError %v", issues, tt.wantError)
			}
			for _, issue := range issues {
				if issue.Source != types.SourceSchema || issue.Severity != types.SeverityError {
					t.Errorf("unexpected issue classification: %+v", issue)
				}
			}
		})
	}
}

func TestValidateTemplate(t *testing.T) {
	v := loadedValidator(t)

	valid := validAssessment()
	tpl := map[string]any{
		"id":         "tpl-1",
		"name":       "PID policy",
		"actor":      map[string]any{"id": "6"},
		"principles": valid["principles"],
	}
	issues, err := v.ValidateTemplate(tpl)
	if err != nil {
		t.Fatalf("ValidateTemplate() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected valid template, got %v", issues)
	}

	tpl["principles"] = []any{}
	issues, err = v.ValidateTemplate(tpl)
	if err != nil {
		t.Fatalf("ValidateTemplate() error = %v", err)
	}
	if len(issues) == 0 {
		t.Error("expected a template without principles to be rejected")
	}
}

func TestValidateFile(t *testing.T) {
	v := loadedValidator(t)

	yamlDoc := `
id: tpl-1
name: PID policy
principles:
  - id: P1
    criteria:
      - id: C1
        imperative: MAY
        metric:
          algorithm: max
          benchmark:
            equal_greater_than: 70
          tests:
            - id: T1
              type: Value-Community
              result: null
`
	issues, err := v.ValidateFile("templates/pid.yaml", []byte(yamlDoc), types.KindTemplate)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}

	issues, err = v.ValidateFile("a.json", []byte(`{"name": 3, "principles": []}`), types.KindAssessment)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if len(issues) == 0 {
		t.Fatal("expected issues for a numeric name")
	}
	if issues[0].File != "a.json" {
		t.Errorf("issue file = %q, want a.json", issues[0].File)
	}

	issues, err = v.ValidateFile("broken.json", []byte(`{"name": `), types.KindAssessment)
	if err != nil {
		t.Fatalf("ValidateFile() error = %v", err)
	}
	if len(issues) != 1 || issues[0].Source != types.SourceInput {
		t.Errorf("expected one input issue, got %v", issues)
	}

	if _, err := v.ValidateFile("a.json", []byte(`{}`), "agent"); err == nil {
		t.Error("expected error for unknown kind")
	} else if !strings.Contains(err.Error(), "unknown document kind") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateWithoutSchemas(t *testing.T) {
	v := NewValidator()
	issues, err := v.ValidateAssessment(map[string]any{"name": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issues != nil {
		t.Errorf("expected no issues without schemas, got %v", issues)
	}
}

func criterion(d map[string]any) map[string]any {
	p := d["principles"].([]any)[0].(map[string]any)
	return p["criteria"].([]any)[0].(map[string]any)
}

func test(d map[string]any) map[string]any {
	m := criterion(d)["metric"].(map[string]any)
	return m["tests"].([]any)[0].(map[string]any)
}
