package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dotcommander/assesskit/internal/cli"
	"github.com/dotcommander/assesskit/internal/types"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	w          io.Writer
	verbose    bool
	outputFile string
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(w io.Writer, verbose bool, outputFile string) *MarkdownFormatter {
	return &MarkdownFormatter{
		w:          w,
		verbose:    verbose,
		outputFile: outputFile,
	}
}

// Format formats the evaluation summary as Markdown
func (f *MarkdownFormatter) Format(summary *cli.EvaluationSummary) error {
	var b strings.Builder

	b.WriteString("# Assessment Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	if summary.ProjectRoot != "" {
		fmt.Fprintf(&b, "**Project:** %s\n\n", summary.ProjectRoot)
	}
	fmt.Fprintf(&b, "**Duration:** %v\n\n", time.Duration(summary.Duration)*time.Millisecond)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Documents | %d |\n", summary.TotalFiles)
	fmt.Fprintf(&b, "| Assessments | %d |\n", summary.Assessments)
	fmt.Fprintf(&b, "| Templates | %d |\n", summary.Templates)
	fmt.Fprintf(&b, "| Compliant | %d |\n", summary.Compliant)
	fmt.Fprintf(&b, "| Non-compliant | %d |\n", summary.NonCompliant)
	fmt.Fprintf(&b, "| Unresolved | %d |\n", summary.Unresolved)
	fmt.Fprintf(&b, "| Invalid | %d |\n", summary.FailedFiles)
	fmt.Fprintf(&b, "| Errors | %d |\n", summary.TotalErrors)
	fmt.Fprintf(&b, "| Warnings | %d |\n", summary.TotalWarnings)
	b.WriteString("\n")

	if summary.Assessments > 0 {
		b.WriteString("## Assessments\n\n")
		b.WriteString("| File | Name | Compliance | Ranking | Mandatory | Optional |\n")
		b.WriteString("|------|------|------------|---------|-----------|----------|\n")
		for _, r := range summary.Results {
			if !r.Scored() {
				continue
			}
			s := r.Stats
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %d/%d | %d/%d |\n",
				r.File, escapeCell(r.Name), ComplianceLabel(s.Compliance), s.Ranking,
				s.Mandatory.Passed, s.Mandatory.Total, s.Optional.Passed, s.Optional.Total)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Detailed Results\n\n")
	if summary.TotalFiles == 0 {
		b.WriteString("*No documents found.*\n\n")
	}
	for _, r := range summary.Results {
		hasIssues := len(r.Errors) > 0 || len(r.Warnings) > 0
		if !hasIssues && !f.verbose {
			continue
		}

		fmt.Fprintf(&b, "### %s\n\n", r.File)
		fmt.Fprintf(&b, "Status: %s\n\n", getStatusEmoji(r.Success))
		fmt.Fprintf(&b, "Kind: `%s`\n\n", r.Kind)
		writeIssues(&b, "Errors", r.Errors)
		writeIssues(&b, "Warnings", r.Warnings)

		if f.verbose && r.Scored() {
			b.WriteString("| Criterion | Imperative | Bucket | Status | Answered |\n")
			b.WriteString("|-----------|------------|--------|--------|----------|\n")
			for _, c := range r.Stats.Criteria {
				fmt.Fprintf(&b, "| %s/%s | %s | %s | %s | %d/%d |\n",
					c.PrincipleID, c.CriterionID, c.Imperative, c.Bucket, c.Status, c.Filled, c.Total)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Conclusion\n\n")
	if summary.FailedFiles == 0 && summary.NonCompliant == 0 {
		b.WriteString("✓ No invalid or non-compliant documents\n")
	} else {
		fmt.Fprintf(&b, "✗ %d invalid, %d non-compliant\n", summary.FailedFiles, summary.NonCompliant)
	}

	content := b.String()
	if f.outputFile != "" {
		if err := os.WriteFile(f.outputFile, []byte(content), 0644); err != nil {
			return fmt.Errorf("error writing to file %s: %w", f.outputFile, err)
		}
		return nil
	}
	_, err := io.WriteString(f.w, content)
	return err
}

func writeIssues(b *strings.Builder, title string, issues []types.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n\n", title)
	for _, issue := range issues {
		b.WriteString("- ")
		if issue.Path != "" {
			fmt.Fprintf(b, "**%s** ", issue.Path)
		}
		b.WriteString(escapeCell(issue.Message))
		if issue.Source != "" {
			fmt.Fprintf(b, " `[%s]`", issue.Source)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// getStatusEmoji returns an emoji for the status
func getStatusEmoji(success bool) string {
	if success {
		return "✅"
	}
	return "❌"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
