// Package scoring turns answered tests into verdicts: metrics aggregate
// test results and compare them to a benchmark, criteria classify that
// verdict as mandatory or optional, and the assessment tallies both buckets
// into a ranking and a compliance verdict. Everything here is pure: the
// evaluators read the tree and never mutate it, except the Apply helpers
// which write derived fields back for display.
package scoring

import (
	"encoding/json"
	"math"

	"github.com/dotcommander/assesskit/internal/model"
)

// EvaluateMetric aggregates the metric's tests and compares the value to the
// benchmark. A single unanswered test leaves both value and result
// unresolved, whatever the algorithm.
func EvaluateMetric(m model.Metric) MetricEvaluation {
	if len(m.Tests) == 0 {
		return MetricEvaluation{}
	}

	results := make([]float64, 0, len(m.Tests))
	for _, t := range m.Tests {
		if t.Result == nil {
			return MetricEvaluation{}
		}
		results = append(results, *t.Result)
	}

	value := aggregate(m.Algorithm, results)
	eval := MetricEvaluation{Value: &value}

	// No benchmark leaves the result unresolved even though value is known.
	threshold, ok := Threshold(m)
	if !ok {
		return eval
	}
	if value >= threshold {
		eval.Result = Pass
	} else {
		eval.Result = Fail
	}
	return eval
}

// aggregate folds results per algorithm. single is a degenerate sum and
// unknown algorithms fall back to sum.
func aggregate(algorithm model.Algorithm, results []float64) float64 {
	switch algorithm {
	case model.AlgorithmMax:
		value := math.Inf(-1)
		for _, r := range results {
			value = math.Max(value, r)
		}
		return value
	default:
		var value float64
		for _, r := range results {
			value += r
		}
		return value
	}
}

// Threshold returns the value a metric must reach. benchmark_value wins over
// the structured benchmark object.
func Threshold(m model.Metric) (float64, bool) {
	if m.BenchmarkValue != nil {
		return *m.BenchmarkValue, true
	}
	raw, ok := m.Benchmark[model.BenchmarkEqualGreaterThan]
	if !ok {
		return 0, false
	}
	return toFloat(raw)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ApplyMetric recomputes the metric's derived value and result in place.
func ApplyMetric(m *model.Metric) MetricEvaluation {
	eval := EvaluateMetric(*m)
	m.Value = eval.Value
	m.Result = eval.Result.Number()
	return eval
}

// Progress counts answered tests, for the per-tab progress indicator.
func Progress(m model.Metric) (filled, total int) {
	for _, t := range m.Tests {
		if t.Answered() {
			filled++
		}
	}
	return filled, len(m.Tests)
}
