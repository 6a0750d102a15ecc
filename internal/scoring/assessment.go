package scoring

import (
	"fmt"

	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/types"
)

// EvaluateAssessment walks every principle and criterion and tallies the
// mandatory and optional buckets.
//
// Ranking is the number of criteria in PASS, both buckets combined.
// Compliance is unresolved while any mandatory criterion is unresolved,
// otherwise it passes only if every mandatory criterion passes. Optional
// criteria never affect compliance.
//
// Malformed nodes are skipped and reported in Warnings.
func EvaluateAssessment(a *model.Assessment) ResultStats {
	var stats ResultStats
	if a == nil {
		stats.Warnings = append(stats.Warnings, integrityIssue("", "assessment is nil"))
		return stats
	}

	for pi, p := range a.Principles {
		pPath := fmt.Sprintf("principles[%d]", pi)
		if len(p.Criteria) == 0 {
			stats.Warnings = append(stats.Warnings,
				integrityIssue(pPath, fmt.Sprintf("principle %s has no criteria", p.ID)))
			continue
		}

		for ci, c := range p.Criteria {
			cPath := fmt.Sprintf("%s.criteria[%d]", pPath, ci)
			cls, err := ClassifyCriterion(c)
			if err != nil {
				stats.Warnings = append(stats.Warnings, integrityIssue(cPath, err.Error()))
				continue
			}

			bucket := &stats.Optional
			if cls.Bucket == Mandatory {
				bucket = &stats.Mandatory
			}
			bucket.Total++
			if cls.Status.Resolved() {
				bucket.Filled++
			}
			if cls.Status == Pass {
				bucket.Passed++
				stats.Ranking++
			}

			m, _ := c.TheMetric()
			filled, total := Progress(*m)
			stats.Criteria = append(stats.Criteria, CriterionResult{
				PrincipleID: p.ID,
				CriterionID: c.ID,
				Name:        c.Name,
				Imperative:  c.Imperative,
				Bucket:      cls.Bucket,
				Status:      cls.Status,
				Value:       EvaluateMetric(*m).Value,
				Filled:      filled,
				Total:       total,
			})
		}
	}

	stats.Compliance = compliance(stats.Mandatory)
	return stats
}

// compliance derives the overall verdict from the mandatory bucket alone.
// An assessment without mandatory criteria is trivially compliant.
func compliance(mandatory BucketStats) Verdict {
	switch {
	case mandatory.Filled < mandatory.Total:
		return Unresolved
	case mandatory.Passed == mandatory.Total:
		return Pass
	default:
		return Fail
	}
}

// ApplyAssessment refreshes every metric's derived fields and the
// assessment's display result, then returns the full evaluation.
func ApplyAssessment(a *model.Assessment) ResultStats {
	if a == nil {
		return EvaluateAssessment(nil)
	}
	for _, c := range a.Criteria() {
		if c.Metric != nil {
			ApplyMetric(c.Metric)
		}
		for i := range c.Metrics {
			ApplyMetric(&c.Metrics[i])
		}
	}
	stats := EvaluateAssessment(a)
	a.Result = &model.ResultSummary{
		Compliance: stats.Compliance.Bool(),
		Ranking:    stats.Ranking,
	}
	return stats
}

func integrityIssue(path, msg string) types.Issue {
	return types.Issue{
		Path:     path,
		Message:  msg,
		Severity: types.SeverityWarning,
		Source:   types.SourceIntegrity,
	}
}
