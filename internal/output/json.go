package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dotcommander/assesskit/internal/cli"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/types"
)

// Version is reported in machine-readable output.
const Version = "1.0.0"

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	w          io.Writer
	indent     bool
	outputFile string
}

// NewJSONFormatter creates a new JSONFormatter. When outputFile is set the
// report goes there instead of w.
func NewJSONFormatter(w io.Writer, indent bool, outputFile string) *JSONFormatter {
	return &JSONFormatter{
		w:          w,
		indent:     indent,
		outputFile: outputFile,
	}
}

// Format formats the evaluation summary as JSON
func (f *JSONFormatter) Format(summary *cli.EvaluationSummary) error {
	report := BuildJSONReport(summary, time.Now())

	var jsonBytes []byte
	var err error
	if f.indent {
		jsonBytes, err = json.MarshalIndent(report, "", "  ")
	} else {
		jsonBytes, err = json.Marshal(report)
	}
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, append(jsonBytes, '\n'), 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", f.outputFile, err)
		}
		return nil
	}
	_, err = fmt.Fprintln(f.w, string(jsonBytes))
	return err
}

// BuildJSONReport converts a summary to its report shape.
func BuildJSONReport(summary *cli.EvaluationSummary, now time.Time) JSONReport {
	report := JSONReport{
		Header: JSONHeader{
			Tool:      "assesskit",
			Version:   Version,
			Timestamp: now.Format(time.RFC3339),
		},
		Summary: JSONSummary{
			TotalFiles:      summary.TotalFiles,
			SuccessfulFiles: summary.SuccessfulFiles,
			FailedFiles:     summary.FailedFiles,
			TotalErrors:     summary.TotalErrors,
			TotalWarnings:   summary.TotalWarnings,
			IgnoredIssues:   summary.IgnoredIssues,
			Assessments:     summary.Assessments,
			Templates:       summary.Templates,
			Compliant:       summary.Compliant,
			NonCompliant:    summary.NonCompliant,
			Unresolved:      summary.Unresolved,
			DurationMS:      summary.Duration,
		},
		Results: make([]JSONResult, len(summary.Results)),
	}

	for i, result := range summary.Results {
		jr := JSONResult{
			File:     result.File,
			Kind:     result.Kind,
			ID:       result.ID,
			Name:     result.Name,
			Success:  result.Success,
			Duration: result.Duration,
			Errors:   result.Errors,
			Warnings: result.Warnings,
		}
		if result.Scored() {
			s := result.Stats
			ranking := s.Ranking
			mandatory, optional := s.Mandatory, s.Optional
			jr.Compliance = s.Compliance.Bool()
			jr.Ranking = &ranking
			jr.Mandatory = &mandatory
			jr.Optional = &optional
			jr.Criteria = s.Criteria
		}
		report.Results[i] = jr
	}
	return report
}

// JSONReport represents the complete JSON report structure
type JSONReport struct {
	Header  JSONHeader   `json:"header"`
	Summary JSONSummary  `json:"summary"`
	Results []JSONResult `json:"results"`
}

// JSONHeader contains report metadata
type JSONHeader struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// JSONSummary contains summary statistics
type JSONSummary struct {
	TotalFiles      int   `json:"total_files"`
	SuccessfulFiles int   `json:"successful_files"`
	FailedFiles     int   `json:"failed_files"`
	TotalErrors     int   `json:"total_errors"`
	TotalWarnings   int   `json:"total_warnings"`
	IgnoredIssues   int   `json:"ignored_issues,omitempty"`
	Assessments     int   `json:"assessments"`
	Templates       int   `json:"templates"`
	Compliant       int   `json:"compliant"`
	NonCompliant    int   `json:"noncompliant"`
	Unresolved      int   `json:"unresolved"`
	DurationMS      int64 `json:"duration_ms"`
}

// JSONResult represents a single document's evaluation. Compliance is
// encoded as true, false or null.
type JSONResult struct {
	File       string                    `json:"file"`
	Kind       string                    `json:"kind"`
	ID         string                    `json:"id,omitempty"`
	Name       string                    `json:"name,omitempty"`
	Success    bool                      `json:"success"`
	Duration   int64                     `json:"duration_ms,omitempty"`
	Compliance *bool                     `json:"compliance"`
	Ranking    *int                      `json:"ranking,omitempty"`
	Mandatory  *scoring.BucketStats      `json:"mandatory,omitempty"`
	Optional   *scoring.BucketStats      `json:"optional,omitempty"`
	Criteria   []scoring.CriterionResult `json:"criteria,omitempty"`
	Errors     []types.Issue             `json:"errors,omitempty"`
	Warnings   []types.Issue             `json:"warnings,omitempty"`
}
