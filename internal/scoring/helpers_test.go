package scoring

import (
	"fmt"

	"github.com/dotcommander/assesskit/internal/model"
)

// results builds a test slice from raw answers; nil means unanswered.
func results(rs ...*float64) []model.Test {
	tests := make([]model.Test, len(rs))
	for i, r := range rs {
		tests[i] = model.Test{ID: fmt.Sprintf("T%d", i+1), Type: "Value", Result: r}
	}
	return tests
}

func f(v float64) *float64 {
	return model.Float(v)
}

// criterionWith builds a criterion whose single binary test drives status.
func criterionWith(id, imperative string, status Verdict) model.Criterion {
	test := model.Test{ID: id + "-T1", Type: "Binary-Binary"}
	switch status {
	case Pass:
		test.Result = f(1)
	case Fail:
		test.Result = f(0)
	}
	return model.Criterion{
		ID:         id,
		Imperative: imperative,
		Metric: &model.Metric{
			ID:             id + "-M",
			Algorithm:      model.AlgorithmSingle,
			BenchmarkValue: f(1),
			Tests:          []model.Test{test},
		},
	}
}

// assessmentWith places all criteria under one principle.
func assessmentWith(criteria ...model.Criterion) *model.Assessment {
	return &model.Assessment{
		Name:       "test",
		Principles: []model.Principle{{ID: "P1", Criteria: criteria}},
	}
}
