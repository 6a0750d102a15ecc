// Package model defines the assessment document tree: principles own
// criteria, each criterion owns one metric, and each metric owns the tests
// a user answers. Test results are the single source of truth; every other
// numeric field in the tree is derived and only kept for display.
package model

import (
	"strings"
)

// Algorithm selects how a metric aggregates its test results.
type Algorithm string

// Supported aggregation algorithms. Anything else aggregates like AlgorithmSum.
const (
	AlgorithmSingle Algorithm = "single"
	AlgorithmSum    Algorithm = "sum"
	AlgorithmMax    Algorithm = "max"
)

// BenchmarkEqualGreaterThan is the only comparator key recognized in a
// structured benchmark object.
const BenchmarkEqualGreaterThan = "equal_greater_than"

// Test type tags. Documents in the wild carry compound tags such as
// "Binary-Manual" or "Value-Community"; classification goes by prefix.
const (
	TestTypeBinary    = "binary"
	TestTypeValue     = "value"
	TestTypeAutomated = "automated"
)

// Test is one answerable question.
type Test struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name,omitempty" yaml:"name,omitempty"`
	Text   string         `json:"text,omitempty" yaml:"text,omitempty"`
	Type   string         `json:"type" yaml:"type"`
	Result *float64       `json:"result" yaml:"result"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Metric aggregates its tests into Value and compares it to the benchmark.
// Value and Result are derived; see scoring.ApplyMetric.
type Metric struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name,omitempty" yaml:"name,omitempty"`
	Algorithm      Algorithm      `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	BenchmarkValue *float64       `json:"benchmark_value,omitempty" yaml:"benchmark_value,omitempty"`
	Benchmark      map[string]any `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
	Value          *float64       `json:"value" yaml:"value"`
	Result         *float64       `json:"result" yaml:"result"`
	Tests          []Test         `json:"tests" yaml:"tests"`
}

// Criterion is a single compliance requirement. Well-formed documents carry
// exactly one metric in Metric; the Metrics list form is accepted on input so
// that malformed trees can be detected instead of silently truncated.
type Criterion struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Imperative  string   `json:"imperative" yaml:"imperative"`
	Metric      *Metric  `json:"metric,omitempty" yaml:"metric,omitempty"`
	Metrics     []Metric `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Principle groups criteria. It has no verdict of its own.
type Principle struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Criteria    []Criterion `json:"criteria" yaml:"criteria"`
}

// Actor is the role the assessment is carried out for.
type Actor struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Organisation owns the assessed subject.
type Organisation struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Subject is what is being assessed: a service, an organisation or a PID scheme.
type Subject struct {
	DBID string `json:"db_id,omitempty" yaml:"db_id,omitempty"`
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// Profile identifies the person who submitted an assessment.
type Profile struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Surname     string `json:"surname,omitempty" yaml:"surname,omitempty"`
	Affiliation string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty" yaml:"orcid,omitempty"`
}

// ResultSummary is the display copy of the assessment-level verdict.
// Compliance is nil while any mandatory criterion is unresolved.
type ResultSummary struct {
	Compliance *bool `json:"compliance" yaml:"compliance"`
	Ranking    int   `json:"ranking" yaml:"ranking"`
}

// Assessment is the root of the tree.
type Assessment struct {
	ID           string         `json:"id,omitempty" yaml:"id,omitempty"`
	TemplateID   string         `json:"template_id,omitempty" yaml:"template_id,omitempty"`
	Name         string         `json:"name" yaml:"name"`
	Actor        *Actor         `json:"actor,omitempty" yaml:"actor,omitempty"`
	Organisation *Organisation  `json:"organisation,omitempty" yaml:"organisation,omitempty"`
	Subject      *Subject       `json:"subject,omitempty" yaml:"subject,omitempty"`
	Submitter    *Profile       `json:"submitter,omitempty" yaml:"submitter,omitempty"`
	Published    bool           `json:"published" yaml:"published"`
	Timestamp    string         `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Result       *ResultSummary `json:"result,omitempty" yaml:"result,omitempty"`
	Principles   []Principle    `json:"principles" yaml:"principles"`
}

// Template is an unanswered assessment blueprint for one actor.
type Template struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string      `json:"version,omitempty" yaml:"version,omitempty"`
	Actor       *Actor      `json:"actor,omitempty" yaml:"actor,omitempty"`
	Principles  []Principle `json:"principles" yaml:"principles"`
}

// Kind classifies the type tag by its leading family. Anything that is not
// binary or automated takes a numeric value.
func (t Test) Kind() string {
	tag := strings.ToLower(strings.TrimSpace(t.Type))
	switch {
	case strings.HasPrefix(tag, TestTypeBinary):
		return TestTypeBinary
	case strings.HasPrefix(tag, TestTypeAutomated):
		return TestTypeAutomated
	default:
		return TestTypeValue
	}
}

// IsBinary reports whether the test takes a yes/no answer.
func (t Test) IsBinary() bool { return t.Kind() == TestTypeBinary }

// IsAutomated reports whether the test is answered by an automated check.
func (t Test) IsAutomated() bool { return t.Kind() == TestTypeAutomated }

// Answered reports whether the test carries a result.
func (t Test) Answered() bool {
	return t.Result != nil
}

// Criteria returns pointers to every criterion in document order.
func (a *Assessment) Criteria() []*Criterion {
	var out []*Criterion
	for pi := range a.Principles {
		for ci := range a.Principles[pi].Criteria {
			out = append(out, &a.Principles[pi].Criteria[ci])
		}
	}
	return out
}

// Criterion finds a criterion by id.
func (a *Assessment) Criterion(id string) (*Criterion, bool) {
	for _, c := range a.Criteria() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// TheMetric returns the criterion's single metric, accepting either the
// object form or a one-element list. count is the number of metrics the
// criterion carries; m is nil unless count is 1.
func (c *Criterion) TheMetric() (m *Metric, count int) {
	switch {
	case c.Metric != nil && len(c.Metrics) == 0:
		return c.Metric, 1
	case c.Metric == nil && len(c.Metrics) == 1:
		return &c.Metrics[0], 1
	case c.Metric != nil:
		return nil, 1 + len(c.Metrics)
	default:
		return nil, len(c.Metrics)
	}
}

// Test finds a test by id within the metric.
func (m *Metric) Test(id string) (*Test, bool) {
	for i := range m.Tests {
		if m.Tests[i].ID == id {
			return &m.Tests[i], true
		}
	}
	return nil, false
}

// Float returns a pointer to v, for building results and benchmarks.
func Float(v float64) *float64 {
	return &v
}
