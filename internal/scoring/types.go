package scoring

import (
	"encoding/json"
	"fmt"

	"github.com/dotcommander/assesskit/internal/types"
)

// Verdict is the tri-state outcome of a metric, a criterion or an
// assessment. The zero value is Unresolved.
type Verdict int

const (
	Unresolved Verdict = iota
	Pass
	Fail
)

// String returns the status badge for the verdict.
func (v Verdict) String() string {
	switch v {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// Resolved reports whether the verdict is Pass or Fail.
func (v Verdict) Resolved() bool {
	return v == Pass || v == Fail
}

// Number returns the document form of a metric result: 1, 0 or nil.
func (v Verdict) Number() *float64 {
	switch v {
	case Pass:
		n := 1.0
		return &n
	case Fail:
		n := 0.0
		return &n
	default:
		return nil
	}
}

// Bool returns the document form of a compliance verdict: true, false or nil.
func (v Verdict) Bool() *bool {
	switch v {
	case Pass:
		b := true
		return &b
	case Fail:
		b := false
		return &b
	default:
		return nil
	}
}

// MarshalJSON encodes the verdict as its badge.
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// Bucket says whether a criterion gates compliance.
type Bucket int

const (
	Optional Bucket = iota
	Mandatory
)

// String returns "mandatory" or "optional".
func (b Bucket) String() string {
	if b == Mandatory {
		return "mandatory"
	}
	return "optional"
}

// MarshalJSON encodes the bucket by name.
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MetricEvaluation is the derived state of a metric. Value is nil while any
// test is unanswered.
type MetricEvaluation struct {
	Value  *float64 `json:"value"`
	Result Verdict  `json:"result"`
}

// Classification binds a criterion's verdict to its bucket.
type Classification struct {
	Bucket Bucket  `json:"bucket"`
	Status Verdict `json:"status"`
}

// CriterionResult is one row of the assessment breakdown.
type CriterionResult struct {
	PrincipleID string   `json:"principle_id"`
	CriterionID string   `json:"criterion_id"`
	Name        string   `json:"name,omitempty"`
	Imperative  string   `json:"imperative"`
	Bucket      Bucket   `json:"bucket"`
	Status      Verdict  `json:"status"`
	Value       *float64 `json:"value"`
	Filled      int      `json:"filled"`
	Total       int      `json:"total"`
}

// BucketStats counts criteria in one bucket.
type BucketStats struct {
	Total  int `json:"total"`
	Filled int `json:"filled"`
	Passed int `json:"passed"`
}

// Unknown returns how many criteria in the bucket are unresolved.
func (b BucketStats) Unknown() int {
	return b.Total - b.Filled
}

// ResultStats is the assessment-level evaluation.
type ResultStats struct {
	Mandatory  BucketStats       `json:"mandatory"`
	Optional   BucketStats       `json:"optional"`
	Ranking    int               `json:"ranking"`
	Compliance Verdict           `json:"-"`
	Criteria   []CriterionResult `json:"criteria"`
	Warnings   []types.Issue     `json:"warnings,omitempty"`
}

// MarshalJSON encodes compliance as true, false or null.
func (s ResultStats) MarshalJSON() ([]byte, error) {
	type plain ResultStats
	return json.Marshal(struct {
		plain
		Compliance *bool `json:"compliance"`
	}{plain(s), s.Compliance.Bool()})
}

// IntegrityError reports a malformed node in the assessment tree.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}
