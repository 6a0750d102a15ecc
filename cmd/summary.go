package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dotcommander/assesskit/internal/cli"
	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the compliance summary across all assessments",
	Long: `Summary evaluates every document under the project root and prints the
compliance distribution, the most frequent issues and the lowest-ranking
assessments.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSummary(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

// ComplianceSummary holds aggregated data for the summary report
type ComplianceSummary struct {
	TotalDocuments  int
	Assessments     int
	Templates       int
	Invalid         int
	Compliant       int
	NonCompliant    int
	Unresolved      int
	TopIssues       map[string]int
	LowestRanking   []RankedAssessment
	UnusedTemplates []string
}

// RankedAssessment is an assessment with its ranking, for sorting
type RankedAssessment struct {
	File       string
	Name       string
	Ranking    int
	Criteria   int
	Compliance string
}

func runSummary(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	summary, err := evaluateDocuments(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()), nil, discovery.FileTypeUnknown, false)
	if err != nil {
		return err
	}
	printSummaryReport(cmd.OutOrStdout(), aggregateResults(summary))
	return nil
}

func aggregateResults(summary *cli.EvaluationSummary) *ComplianceSummary {
	cs := &ComplianceSummary{
		TotalDocuments:  summary.TotalFiles,
		Assessments:     summary.Assessments,
		Templates:       summary.Templates,
		Invalid:         summary.FailedFiles,
		Compliant:       summary.Compliant,
		NonCompliant:    summary.NonCompliant,
		Unresolved:      summary.Unresolved,
		TopIssues:       make(map[string]int),
		UnusedTemplates: summary.UnusedTemplates,
	}

	for _, result := range summary.Results {
		for _, issue := range result.Errors {
			cs.TopIssues[categorizeIssue(issue)]++
		}
		for _, issue := range result.Warnings {
			cs.TopIssues[categorizeIssue(issue)]++
		}
		if !result.Scored() {
			continue
		}
		cs.LowestRanking = append(cs.LowestRanking, RankedAssessment{
			File:       result.File,
			Name:       result.Name,
			Ranking:    result.Ranking(),
			Criteria:   len(result.Stats.Criteria),
			Compliance: result.Compliance().String(),
		})
	}

	sort.SliceStable(cs.LowestRanking, func(i, j int) bool {
		a, b := cs.LowestRanking[i], cs.LowestRanking[j]
		if a.Ranking != b.Ranking {
			return a.Ranking < b.Ranking
		}
		return a.File < b.File
	})
	return cs
}

func categorizeIssue(issue types.Issue) string {
	msg := issue.Message
	switch {
	case issue.Source == types.SourceInput:
		return "Unreadable document"
	case issue.Source == types.SourceSchema:
		return "Schema violation"
	case issue.Source == types.SourceReference && strings.Contains(msg, "not found"):
		return "Unknown template"
	case issue.Source == types.SourceReference:
		return "Duplicate id"
	case strings.Contains(msg, "has no criteria"):
		return "Principle without criteria"
	case strings.Contains(msg, "found 0"):
		return "Criterion without metric"
	case strings.Contains(msg, "exactly one metric"):
		return "Criterion with several metrics"
	case strings.Contains(msg, "want 0 or 1"):
		return "Invalid binary answer"
	default:
		return "Other issues"
	}
}

// printStyles holds all the styles used in the summary report.
type printStyles struct {
	header       lipgloss.Style
	compliant    lipgloss.Style
	noncompliant lipgloss.Style
	unresolved   lipgloss.Style
	dim          lipgloss.Style
}

func newPrintStyles() printStyles {
	return printStyles{
		header:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		compliant:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		noncompliant: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		unresolved:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		dim:          lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func printSummaryReport(w io.Writer, summary *ComplianceSummary) {
	styles := newPrintStyles()

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.header.Render("╔═══════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(w, styles.header.Render("║                  COMPLIANCE SUMMARY                       ║"))
	fmt.Fprintln(w, styles.header.Render("╠═══════════════════════════════════════════════════════════╣"))
	fmt.Fprintf(w, "║ Documents: %-47d ║\n", summary.TotalDocuments)
	fmt.Fprintf(w, "║   Assessments: %-5d │ Templates: %-5d │ Invalid: %-6d ║\n",
		summary.Assessments, summary.Templates, summary.Invalid)

	printDistribution(w, summary, styles)
	printTopIssues(w, summary, styles)
	printLowestRanking(w, summary, styles)
	printUnusedTemplates(w, summary, styles)

	fmt.Fprintln(w, styles.header.Render("╚═══════════════════════════════════════════════════════════╝"))
	fmt.Fprintln(w)
}

func printDistribution(w io.Writer, summary *ComplianceSummary, styles printStyles) {
	fmt.Fprintln(w, styles.header.Render("╠───────────────────────────────────────────────────────────╣"))
	fmt.Fprintln(w, "║ COMPLIANCE DISTRIBUTION                                   ║")

	rows := []struct {
		label string
		count int
		style lipgloss.Style
		color string
	}{
		{"Compliant    ", summary.Compliant, styles.compliant, "10"},
		{"Non-compliant", summary.NonCompliant, styles.noncompliant, "9"},
		{"Unresolved   ", summary.Unresolved, styles.unresolved, "3"},
	}
	total := float64(summary.Assessments)
	if total == 0 {
		total = 1
	}
	for _, r := range rows {
		fmt.Fprintf(w, "║   %s: %-4d (%5.1f%%)  %s                    ║\n",
			r.style.Render(r.label), r.count, float64(r.count)/total*100,
			renderBar(r.count, summary.Assessments, r.color))
	}
}

type issueCount struct {
	issue string
	count int
}

func printTopIssues(w io.Writer, summary *ComplianceSummary, styles printStyles) {
	if len(summary.TopIssues) == 0 {
		return
	}
	fmt.Fprintln(w, styles.header.Render("╠───────────────────────────────────────────────────────────╣"))
	fmt.Fprintln(w, "║ TOP ISSUES                                                ║")

	var issues []issueCount
	for issue, count := range summary.TopIssues {
		issues = append(issues, issueCount{issue, count})
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].count != issues[j].count {
			return issues[i].count > issues[j].count
		}
		return issues[i].issue < issues[j].issue
	})

	for i, ic := range issues {
		if i >= 5 {
			break
		}
		fmt.Fprintf(w, "║   %s %-48s %3d ║\n", styles.dim.Render(fmt.Sprintf("%d.", i+1)), ic.issue, ic.count)
	}
}

func printLowestRanking(w io.Writer, summary *ComplianceSummary, styles printStyles) {
	if len(summary.LowestRanking) == 0 {
		return
	}
	fmt.Fprintln(w, styles.header.Render("╠───────────────────────────────────────────────────────────╣"))
	fmt.Fprintln(w, "║ LOWEST RANKING ASSESSMENTS                                ║")

	for i, a := range summary.LowestRanking {
		if i >= 5 {
			break
		}
		style := styles.unresolved
		switch a.Compliance {
		case "PASS":
			style = styles.compliant
		case "FAIL":
			style = styles.noncompliant
		}
		truncated := a.File
		if len(truncated) > 35 {
			truncated = "..." + truncated[len(truncated)-32:]
		}
		fmt.Fprintf(w, "║   %s %-35s %s %2d/%-3d ║\n",
			styles.dim.Render(fmt.Sprintf("%d.", i+1)),
			truncated,
			style.Render(fmt.Sprintf("%-7s", a.Compliance)),
			a.Ranking, a.Criteria)
	}
}

func printUnusedTemplates(w io.Writer, summary *ComplianceSummary, styles printStyles) {
	if len(summary.UnusedTemplates) == 0 {
		return
	}
	fmt.Fprintln(w, styles.header.Render("╠───────────────────────────────────────────────────────────╣"))
	fmt.Fprintln(w, "║ UNUSED TEMPLATES                                          ║")
	for _, id := range summary.UnusedTemplates {
		fmt.Fprintf(w, "║   %s %-53s ║\n", styles.dim.Render("-"), id)
	}
}

func renderBar(count, total int, color string) string {
	barWidth := 10
	filled := 0
	if total > 0 {
		filled = (count * barWidth) / total
		if count > 0 && filled == 0 {
			filled = 1
		}
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	return style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barWidth-filled))
}
