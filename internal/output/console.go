package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dotcommander/assesskit/internal/cli"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/types"
)

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	w        io.Writer
	quiet    bool
	verbose  bool
	colorize bool
}

// NewConsoleFormatter creates a new ConsoleFormatter. Colors are enabled
// only when w is a terminal.
func NewConsoleFormatter(w io.Writer, quiet, verbose bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		w:        w,
		quiet:    quiet,
		verbose:  verbose,
		colorize: isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// Format formats the evaluation summary for console output
func (f *ConsoleFormatter) Format(summary *cli.EvaluationSummary) error {
	if f.quiet {
		return nil
	}

	f.printFileResults(summary)
	f.printSummary(summary)
	f.printConclusion(summary)
	return nil
}

func (f *ConsoleFormatter) style(color string) lipgloss.Style {
	if !f.colorize {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

func (f *ConsoleFormatter) verdictStyle(v scoring.Verdict) lipgloss.Style {
	switch v {
	case scoring.Pass:
		return f.style("10")
	case scoring.Fail:
		return f.style("9")
	default:
		return f.style("3")
	}
}

func (f *ConsoleFormatter) printFileResults(summary *cli.EvaluationSummary) {
	for _, result := range summary.Results {
		hasIssues := len(result.Errors) > 0 || len(result.Warnings) > 0
		if !hasIssues && !f.verbose && result.Compliance() != scoring.Fail {
			continue
		}

		status, style := "✓", f.style("10")
		switch {
		case len(result.Errors) > 0:
			status, style = "✗", f.style("9")
		case result.Scored() && result.Compliance() == scoring.Fail:
			status, style = "✗", f.style("9")
		case len(result.Warnings) > 0 || (result.Scored() && result.Compliance() == scoring.Unresolved):
			status, style = "⚠", f.style("3")
		}

		line := fmt.Sprintf("%s %s", style.Render(status), result.File)
		if result.Scored() {
			s := result.Stats
			line += fmt.Sprintf("  %s  ranking %d  mandatory %d/%d  optional %d/%d",
				f.verdictStyle(s.Compliance).Render(ComplianceLabel(s.Compliance)),
				s.Ranking,
				s.Mandatory.Passed, s.Mandatory.Total,
				s.Optional.Passed, s.Optional.Total)
		} else if result.Kind == types.KindTemplate && result.Success {
			line += "  template"
		}
		fmt.Fprintln(f.w, line)

		for _, issue := range result.Errors {
			f.printIssue(issue)
		}
		for _, issue := range result.Warnings {
			f.printIssue(issue)
		}
		if f.verbose && result.Scored() {
			f.printCriteria(result.Stats.Criteria)
		}
	}
}

func (f *ConsoleFormatter) printIssue(issue types.Issue) {
	prefix, style := "    ⚠ ", f.style("3")
	if issue.Severity == types.SeverityError {
		prefix, style = "    ✘ ", f.style("9")
	}

	location := issue.File
	if issue.Path != "" {
		location += " " + issue.Path
	}
	fmt.Fprintf(f.w, "%s%s: %s\n", prefix, style.Render(location), issue.Message)
}

func (f *ConsoleFormatter) printCriteria(criteria []scoring.CriterionResult) {
	for _, c := range criteria {
		value := "-"
		if c.Value != nil {
			value = fmt.Sprintf("%.4g", *c.Value)
		}
		fmt.Fprintf(f.w, "      %s %s/%s %s  value %s  answered %d/%d\n",
			f.verdictStyle(c.Status).Render(fmt.Sprintf("%-10s", c.Status.String())),
			c.PrincipleID, c.CriterionID, c.Imperative, value, c.Filled, c.Total)
	}
}

func (f *ConsoleFormatter) printSummary(summary *cli.EvaluationSummary) {
	if summary.TotalFiles == 0 {
		return
	}
	fmt.Fprintf(f.w, "\n%d assessments: %d compliant, %d non-compliant, %d unresolved; %d templates; %d errors, %d warnings",
		summary.Assessments, summary.Compliant, summary.NonCompliant, summary.Unresolved,
		summary.Templates, summary.TotalErrors, summary.TotalWarnings)
	if summary.IgnoredIssues > 0 {
		fmt.Fprintf(f.w, ", %d baselined", summary.IgnoredIssues)
	}
	fmt.Fprintf(f.w, " (%v)\n", (time.Duration(summary.Duration) * time.Millisecond).Round(time.Millisecond))
}

func (f *ConsoleFormatter) printConclusion(summary *cli.EvaluationSummary) {
	if summary.TotalFiles == 0 {
		fmt.Fprintln(f.w, "No documents found")
		return
	}
	fmt.Fprintln(f.w)

	if summary.FailedFiles == 0 && summary.NonCompliant == 0 && summary.Unresolved == 0 {
		style := f.style("10")
		if f.colorize {
			style = style.Bold(true)
		}
		fmt.Fprintln(f.w, style.Render(fmt.Sprintf("✓ All %d documents passed", summary.TotalFiles)))
		return
	}
	fmt.Fprintln(f.w, f.style("9").Render(fmt.Sprintf("✗ %d invalid, %d non-compliant, %d unresolved",
		summary.FailedFiles, summary.NonCompliant, summary.Unresolved)))
}

// ComplianceLabel renders a compliance verdict for reports.
func ComplianceLabel(v scoring.Verdict) string {
	switch v {
	case scoring.Pass:
		return "COMPLIANT"
	case scoring.Fail:
		return "NON-COMPLIANT"
	default:
		return "UNRESOLVED"
	}
}
