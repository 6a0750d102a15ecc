package scoring

import (
	"fmt"
	"strings"

	"github.com/dotcommander/assesskit/internal/model"
)

// BucketFor classifies an imperative. MUST and SHOULD are mandatory; MAY and
// anything unrecognized are optional, so unexpected values never block
// compliance.
func BucketFor(imperative string) Bucket {
	switch strings.ToUpper(strings.TrimSpace(imperative)) {
	case "MUST", "SHOULD":
		return Mandatory
	default:
		return Optional
	}
}

// ClassifyCriterion resolves a criterion's bucket and status from its metric.
// The only error is an *IntegrityError for a criterion that does not carry
// exactly one metric, or whose binary tests hold a result other than 0 or 1.
func ClassifyCriterion(c model.Criterion) (Classification, error) {
	m, count := c.TheMetric()
	if count != 1 {
		return Classification{}, &IntegrityError{
			Path:   "criterion " + c.ID,
			Reason: fmt.Sprintf("expected exactly one metric, found %d", count),
		}
	}
	for _, t := range m.Tests {
		if t.IsBinary() && t.Result != nil && *t.Result != 0 && *t.Result != 1 {
			return Classification{}, &IntegrityError{
				Path:   "criterion " + c.ID,
				Reason: fmt.Sprintf("binary test %s has result %g, want 0 or 1", t.ID, *t.Result),
			}
		}
	}
	return Classification{
		Bucket: BucketFor(c.Imperative),
		Status: EvaluateMetric(*m).Result,
	}, nil
}
