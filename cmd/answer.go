package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/output"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/store"
	"github.com/dotcommander/assesskit/internal/wizard"
)

// answersFile is the scripted input of the wizard. JSON files parse as well.
type answersFile struct {
	Name         string              `yaml:"name"`
	Published    *bool               `yaml:"published"`
	Organisation *model.Organisation `yaml:"organisation"`
	Subject      *subjectAnswer      `yaml:"subject"`
	Answers      []testAnswer        `yaml:"answers"`
}

type subjectAnswer struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Pick bool   `yaml:"pick"` // bind an existing subject read-only
}

// testAnswer sets exactly one of binary, value, control with community, or reset.
type testAnswer struct {
	Criterion string   `yaml:"criterion"`
	Test      string   `yaml:"test"`
	Binary    *bool    `yaml:"binary"`
	Value     *float64 `yaml:"value"`
	Control   *float64 `yaml:"control"`
	Community *float64 `yaml:"community"`
	Reset     bool     `yaml:"reset"`
}

type answerOptions struct {
	answers string
	out     string
	submit  bool
	id      string // load from the store instead of a file
}

var answerOpts answerOptions

var answerCmd = &cobra.Command{
	Use:   "answer [assessment]",
	Short: "Fill in an assessment from an answers file",
	Long: `Answer drives the assessment wizard over an existing document: general
information and test answers are applied from --answers, every criterion
badge is recomputed and printed, and the result is either written back to
the document (or --out) or submitted to the store with --submit.

With --id the assessment is loaded from the store instead, so a submitted
assessment can be edited and submitted again; the new submit replaces the
stored one. Such an edit is only written with --submit or --out.

Submitting needs a token and uses the configured profile as submitter.`,
	Example: `  assesskit answer assessments/handle.json --answers answers.yaml
  ASSESSKIT_TOKEN=... assesskit answer assessments/handle.json --answers answers.yaml --submit
  ASSESSKIT_TOKEN=... assesskit answer --id 6f1c... --answers fixes.yaml --submit`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		logger := newLogger(cfg, cmd.ErrOrStderr())
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		if err := runAnswer(cmd.Context(), cfg, logger, path, answerOpts, cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	answerCmd.Flags().StringVarP(&answerOpts.answers, "answers", "a", "", "Answers file (.yaml or .json)")
	answerCmd.Flags().StringVar(&answerOpts.out, "out", "", "Write the updated assessment here instead of in place")
	answerCmd.Flags().BoolVar(&answerOpts.submit, "submit", false, "Submit the assessment to the store")
	answerCmd.Flags().StringVar(&answerOpts.id, "id", "", "Edit a stored assessment by id")
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string, opts answerOptions, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if (path == "") == (opts.id == "") {
		return fmt.Errorf("give either an assessment file or --id")
	}

	fs := store.New(cfg.StoreDir, logger)
	source := path
	var a *model.Assessment
	var err error
	if opts.id != "" {
		source = "stored assessment " + opts.id
		a, err = fs.Get(opts.id)
	} else {
		a, err = model.LoadAssessment(path)
	}
	if err != nil {
		return err
	}
	if a.Actor == nil || a.Actor.ID == "" {
		return fmt.Errorf("%s has no actor", source)
	}

	c := wizard.Edit(a, []model.Actor{*a.Actor}, fs, wizard.WithLogger(logger))

	if opts.answers != "" {
		af, err := loadAnswers(opts.answers)
		if err != nil {
			return err
		}
		if err := applyAnswers(c, af); err != nil {
			return err
		}
	}

	printTabs(w, c)

	if opts.submit {
		session := wizard.Session{Token: cfg.Token, Profile: cfg.Profile.ModelProfile()}
		if err := c.Submit(ctx, session); err != nil {
			var se *wizard.SubmitError
			if errors.As(err, &se) && se.Retryable() {
				return fmt.Errorf("%w (nothing was lost, run the command again)", err)
			}
			return err
		}
		saved := c.Assessment()
		fmt.Fprintf(w, "Submitted %s to %s\n", saved.ID, fs.Dir())
		if opts.out != "" {
			return model.SaveAssessment(saved, opts.out)
		}
		return nil
	}

	out := opts.out
	if out == "" {
		out = path
	}
	if out == "" {
		fmt.Fprintf(w, "Not saved: %s is only written with --submit or --out\n", source)
		return nil
	}
	doc := c.Assessment()
	scoring.ApplyAssessment(doc)
	if err := model.SaveAssessment(doc, out); err != nil {
		return err
	}
	fmt.Fprintf(w, "Saved %s\n", out)
	return nil
}

func loadAnswers(path string) (*answersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	var af answersFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &af, nil
}

// applyAnswers replays an answers file through the wizard. The first
// rejected answer stops the run.
func applyAnswers(c *wizard.Controller, af *answersFile) error {
	if af.Name != "" {
		if err := c.SetName(af.Name); err != nil {
			return err
		}
	}
	if af.Published != nil {
		if err := c.SetPublished(*af.Published); err != nil {
			return err
		}
	}
	if af.Organisation != nil {
		if err := c.SetOrganisation(*af.Organisation); err != nil {
			return err
		}
	}
	if s := af.Subject; s != nil {
		var err error
		if s.Pick {
			err = c.PickSubject(model.Subject{ID: s.ID, Name: s.Name, Type: s.Type})
		} else {
			err = c.SetManualSubject(s.ID, s.Name, s.Type)
		}
		if err != nil {
			return err
		}
	}

	for i, ans := range af.Answers {
		if err := applyAnswer(c, ans); err != nil {
			return fmt.Errorf("answers[%d] %s/%s: %w", i, ans.Criterion, ans.Test, err)
		}
	}
	return nil
}

func applyAnswer(c *wizard.Controller, ans testAnswer) error {
	set := 0
	for _, given := range []bool{ans.Binary != nil, ans.Value != nil, ans.Control != nil || ans.Community != nil, ans.Reset} {
		if given {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: give exactly one of binary, value, control/community or reset", model.ErrInvalidAnswer)
	}

	var err error
	switch {
	case ans.Binary != nil:
		_, err = c.AnswerBinary(ans.Criterion, ans.Test, *ans.Binary)
	case ans.Value != nil:
		_, err = c.AnswerValue(ans.Criterion, ans.Test, *ans.Value)
	case ans.Reset:
		_, err = c.ResetAnswer(ans.Criterion, ans.Test)
	default:
		if ans.Control == nil || ans.Community == nil {
			return fmt.Errorf("%w: control and community go together", model.ErrInvalidAnswer)
		}
		_, err = c.AnswerValues(ans.Criterion, ans.Test, *ans.Control, *ans.Community)
	}
	return err
}

func printTabs(w io.Writer, c *wizard.Controller) {
	styles := map[scoring.Verdict]lipgloss.Style{
		scoring.Pass:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		scoring.Fail:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		scoring.Unresolved: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	for _, tab := range c.Tabs() {
		progress := tab.Progress()
		if tab.Automated > 0 {
			progress += dim.Render(fmt.Sprintf(" (%d automated)", tab.Automated))
		}
		fmt.Fprintf(w, "%s %s %s/%s %s %s\n",
			dim.Render(fmt.Sprintf("%3d.", tab.Step.Index+1)),
			styles[tab.Status].Render(fmt.Sprintf("%-7s", tab.Status)),
			tab.PrincipleID, tab.CriterionID,
			dim.Render(tab.Bucket.String()),
			progress)
	}

	stats := c.Stats()
	fmt.Fprintf(w, "%s  ranking %d  mandatory %d/%d  optional %d/%d\n",
		styles[stats.Compliance].Bold(true).Render(output.ComplianceLabel(stats.Compliance)),
		stats.Ranking,
		stats.Mandatory.Passed, stats.Mandatory.Total,
		stats.Optional.Passed, stats.Optional.Total)
}
