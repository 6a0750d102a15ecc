package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const templateYAML = `
id: tpl-pid
name: PID Policy Template
actor:
  id: "6"
  name: PID Owner
principles:
  - id: P1
    name: Uniqueness
    criteria:
      - id: C1
        imperative: MUST
        metric:
          id: M1
          algorithm: single
          benchmark:
            equal_greater_than: 1
          tests:
            - id: T1
              type: Binary-Binary
              text: Is the PID unique?
              result: 1
      - id: C2
        imperative: MAY
        metric:
          id: M2
          algorithm: sum
          benchmark_value: 2
          tests:
            - id: T2
              type: Binary-Manual
              result: null
            - id: T3
              type: Value-Community
              result: 40
`

func TestTestIsBinary(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"Binary-Binary", true},
		{"binary", true},
		{"Binary-Manual-Evidence", true},
		{"Value-Community", false},
		{"value", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, Test{Type: tt.typ}.IsBinary())
		})
	}
}

func TestTestKind(t *testing.T) {
	tests := []struct {
		typ       string
		want      string
		automated bool
	}{
		{"Binary-Binary", TestTypeBinary, false},
		{"Binary-Auto", TestTypeBinary, false},
		{"Automated-Value", TestTypeAutomated, true},
		{" automated", TestTypeAutomated, true},
		{"Value-Community", TestTypeValue, false},
		{"Value-Autoscaled", TestTypeValue, false},
		{"", TestTypeValue, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			test := Test{Type: tt.typ}
			assert.Equal(t, tt.want, test.Kind())
			assert.Equal(t, tt.automated, test.IsAutomated())
		})
	}
}

func TestSetResult(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		value   float64
		wantErr bool
	}{
		{"binary yes", "Binary-Binary", 1, false},
		{"binary no", "Binary-Binary", 0, false},
		{"binary stray", "Binary-Binary", 2, true},
		{"value large", "Value-Community", 350, false},
		{"value fractional", "value", 0.25, false},
		{"negative", "value", -1, true},
		{"nan", "value", math.NaN(), true},
		{"inf", "value", math.Inf(1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := Test{ID: "T1", Type: tt.typ}
			err := test.SetResult(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidAnswer))
				assert.Nil(t, test.Result, "rejected answers leave the result untouched")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, test.Result)
			assert.Equal(t, tt.value, *test.Result)
		})
	}
}

func TestSetBinaryAndReset(t *testing.T) {
	test := Test{ID: "T1", Type: "Binary-Binary"}
	assert.False(t, test.Answered())

	test.SetBinary(true)
	require.True(t, test.Answered())
	assert.Equal(t, 1.0, *test.Result)

	test.SetBinary(false)
	assert.Equal(t, 0.0, *test.Result)

	test.Reset()
	assert.False(t, test.Answered())
}

func TestSetValues(t *testing.T) {
	test := Test{ID: "T1", Type: "Value-Community"}
	require.NoError(t, test.SetValues(35, 50))
	assert.InDelta(t, 70.0, *test.Result, 1e-9)

	err := test.SetValues(1, 0)
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	assert.InDelta(t, 70.0, *test.Result, 1e-9)

	binary := Test{ID: "T2", Type: "Binary-Binary"}
	assert.ErrorIs(t, binary.SetValues(1, 1), ErrInvalidAnswer)
}

func TestDecodeTemplateYAML(t *testing.T) {
	tpl, err := DecodeTemplate([]byte(templateYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "tpl-pid", tpl.ID)
	require.NotNil(t, tpl.Actor)
	assert.Equal(t, "PID Owner", tpl.Actor.Name)
	require.Len(t, tpl.Principles, 1)
	require.Len(t, tpl.Principles[0].Criteria, 2)

	c1 := tpl.Principles[0].Criteria[0]
	require.NotNil(t, c1.Metric)
	assert.Equal(t, AlgorithmSingle, c1.Metric.Algorithm)
	assert.EqualValues(t, 1, c1.Metric.Benchmark[BenchmarkEqualGreaterThan])
	require.NotNil(t, c1.Metric.Tests[0].Result)

	c2 := tpl.Principles[0].Criteria[1]
	require.NotNil(t, c2.Metric.BenchmarkValue)
	assert.Equal(t, 2.0, *c2.Metric.BenchmarkValue)
	assert.Nil(t, c2.Metric.Tests[0].Result)
	assert.Equal(t, 40.0, *c2.Metric.Tests[1].Result)
}

func TestDecodeAssessmentJSON(t *testing.T) {
	doc := `{
	  "id": "a-1",
	  "name": "My assessment",
	  "published": true,
	  "subject": {"id": "s-1", "name": "Handle", "type": "PID scheme"},
	  "principles": [{"id": "P1", "criteria": [
	    {"id": "C1", "imperative": "MUST", "metrics": [{"id": "M1", "tests": [{"id": "T1", "type": "binary", "result": 0}]}]}
	  ]}]
	}`
	a, err := DecodeAssessment([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "a-1", a.ID)
	assert.True(t, a.Published)
	require.NotNil(t, a.Subject)
	assert.Equal(t, "PID scheme", a.Subject.Type)

	c := a.Principles[0].Criteria[0]
	m, count := c.TheMetric()
	assert.Equal(t, 1, count)
	require.NotNil(t, m)
	assert.Equal(t, "M1", m.ID)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeAssessment([]byte("{not json"), FormatJSON)
	assert.Error(t, err)

	_, err = DecodeAssessment([]byte("name: [unterminated"), FormatYAML)
	assert.Error(t, err)

	_, err = DecodeMap([]byte("null"), FormatJSON)
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("a.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("a.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("a"))
}

func TestTheMetric(t *testing.T) {
	one := &Metric{ID: "M"}
	tests := []struct {
		name      string
		criterion Criterion
		wantCount int
		wantNil   bool
	}{
		{"object form", Criterion{Metric: one}, 1, false},
		{"list of one", Criterion{Metrics: []Metric{{ID: "M"}}}, 1, false},
		{"none", Criterion{}, 0, true},
		{"list of two", Criterion{Metrics: []Metric{{}, {}}}, 2, true},
		{"both forms", Criterion{Metric: one, Metrics: []Metric{{}}}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, count := tt.criterion.TheMetric()
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantNil, m == nil)
		})
	}
}

func TestInstantiate(t *testing.T) {
	tpl, err := DecodeTemplate([]byte(templateYAML), FormatYAML)
	require.NoError(t, err)

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a, err := Instantiate(tpl, InstantiateOptions{
		Name:    "Handle PID assessment",
		Subject: &Subject{ID: "s-1", Name: "Handle", Type: "PID scheme"},
		Now:     func() time.Time { return fixed },
	})
	require.NoError(t, err)

	_, err = uuid.Parse(a.ID)
	assert.NoError(t, err, "assessment id is a uuid")
	assert.Equal(t, "tpl-pid", a.TemplateID)
	assert.Equal(t, "2026-03-01T12:00:00Z", a.Timestamp)
	assert.Equal(t, "6", a.Actor.ID)
	assert.Equal(t, "Handle", a.Subject.Name)

	for _, c := range a.Criteria() {
		assert.Nil(t, c.Metric.Value)
		assert.Nil(t, c.Metric.Result)
		for _, test := range c.Metric.Tests {
			assert.Nil(t, test.Result, "test %s starts unanswered", test.ID)
		}
	}

	// the template is untouched
	assert.NotNil(t, tpl.Principles[0].Criteria[0].Metric.Tests[0].Result)
}

func TestInstantiateErrors(t *testing.T) {
	_, err := Instantiate(nil, InstantiateOptions{})
	assert.Error(t, err)

	_, err = Instantiate(&Template{ID: "empty"}, InstantiateOptions{})
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	compliant := true
	a := &Assessment{
		ID:      "a-1",
		Subject: &Subject{ID: "s"},
		Result:  &ResultSummary{Compliance: &compliant, Ranking: 2},
		Principles: []Principle{{ID: "P1", Criteria: []Criterion{{
			ID: "C1",
			Metric: &Metric{
				Benchmark: map[string]any{BenchmarkEqualGreaterThan: 1},
				Tests:     []Test{{ID: "T1", Type: "binary", Result: Float(1)}},
			},
		}}}},
	}

	b := a.Clone()
	require.Equal(t, a, b)

	b.Subject.ID = "changed"
	*b.Result.Compliance = false
	b.Principles[0].Criteria[0].Metric.Tests[0].Reset()
	b.Principles[0].Criteria[0].Metric.Benchmark[BenchmarkEqualGreaterThan] = 5

	assert.Equal(t, "s", a.Subject.ID)
	assert.True(t, *a.Result.Compliance)
	assert.NotNil(t, a.Principles[0].Criteria[0].Metric.Tests[0].Result)
	assert.Equal(t, 1, a.Principles[0].Criteria[0].Metric.Benchmark[BenchmarkEqualGreaterThan])

	assert.Nil(t, (*Assessment)(nil).Clone())
}

func TestSaveAndLoadAssessment(t *testing.T) {
	dir := t.TempDir()
	a := &Assessment{
		ID:   "a-1",
		Name: "roundtrip",
		Principles: []Principle{{ID: "P1", Criteria: []Criterion{{
			ID: "C1", Imperative: "MUST",
			Metric: &Metric{ID: "M1", Tests: []Test{{ID: "T1", Type: "binary"}}},
		}}}},
	}

	for _, name := range []string{"out/a.json", "out/a.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, SaveAssessment(a, path))
			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadAssessment(path)
			require.NoError(t, err)
			assert.Equal(t, "roundtrip", loaded.Name)
			assert.Nil(t, loaded.Principles[0].Criteria[0].Metric.Tests[0].Result)
		})
	}

	_, err := LoadAssessment(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestAssessmentLookup(t *testing.T) {
	a := &Assessment{Principles: []Principle{
		{ID: "P1", Criteria: []Criterion{{ID: "C1", Metric: &Metric{Tests: []Test{{ID: "T1"}}}}}},
		{ID: "P2", Criteria: []Criterion{{ID: "C2"}}},
	}}
	assert.Len(t, a.Criteria(), 2)

	c, ok := a.Criterion("C1")
	require.True(t, ok)
	test, ok := c.Metric.Test("T1")
	require.True(t, ok)
	test.SetBinary(true)
	assert.NotNil(t, a.Principles[0].Criteria[0].Metric.Tests[0].Result, "lookups return pointers into the tree")

	_, ok = a.Criterion("nope")
	assert.False(t, ok)
	_, ok = c.Metric.Test("nope")
	assert.False(t, ok)
}
