package cli

import (
	"time"

	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/types"
)

// EvaluationResult is the outcome for one document.
type EvaluationResult struct {
	File       string
	Kind       string
	ID         string
	Name       string
	TemplateID string // assessments only
	Errors     []types.Issue
	Warnings   []types.Issue
	Stats      *scoring.ResultStats // nil for templates and unreadable documents
	Success    bool
	Duration   int64
}

// Compliance is the assessment verdict, Unresolved when nothing was scored.
func (r EvaluationResult) Compliance() scoring.Verdict {
	if r.Stats == nil {
		return scoring.Unresolved
	}
	return r.Stats.Compliance
}

// Ranking is the PASS count, 0 when nothing was scored.
func (r EvaluationResult) Ranking() int {
	if r.Stats == nil {
		return 0
	}
	return r.Stats.Ranking
}

// Scored reports whether the document was an assessment that got evaluated.
func (r EvaluationResult) Scored() bool {
	return r.Stats != nil
}

func (r *EvaluationResult) finish() EvaluationResult {
	r.Success = len(r.Errors) == 0
	return *r
}

// EvaluationSummary summarizes a batch run.
type EvaluationSummary struct {
	ProjectRoot     string
	StartTime       time.Time
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalErrors     int
	TotalWarnings   int
	IgnoredIssues   int
	Assessments     int
	Templates       int
	Compliant       int
	NonCompliant    int
	Unresolved      int
	Duration        int64
	Results         []EvaluationResult
	UnusedTemplates []string // set only when the whole root was evaluated
}

func (s *EvaluationSummary) recalculate() {
	s.TotalFiles = len(s.Results)
	s.SuccessfulFiles, s.FailedFiles = 0, 0
	s.TotalErrors, s.TotalWarnings = 0, 0
	s.Assessments, s.Templates = 0, 0
	s.Compliant, s.NonCompliant, s.Unresolved = 0, 0, 0

	for _, r := range s.Results {
		s.TotalErrors += len(r.Errors)
		s.TotalWarnings += len(r.Warnings)
		if r.Success {
			s.SuccessfulFiles++
		} else {
			s.FailedFiles++
		}
		if r.Kind == types.KindTemplate {
			s.Templates++
			continue
		}
		if !r.Scored() {
			continue
		}
		s.Assessments++
		switch r.Compliance() {
		case scoring.Pass:
			s.Compliant++
		case scoring.Fail:
			s.NonCompliant++
		default:
			s.Unresolved++
		}
	}
}

// ShouldFail applies a fail-on policy. Unreadable or schema-invalid
// documents fail every policy except never.
func (s *EvaluationSummary) ShouldFail(policy string) bool {
	switch policy {
	case config.FailOnNever:
		return false
	case config.FailOnUnresolved:
		return s.FailedFiles > 0 || s.NonCompliant > 0 || s.Unresolved > 0
	default:
		return s.FailedFiles > 0 || s.NonCompliant > 0
	}
}
