package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/assesskit/internal/discovery"
)

var (
	evaluateKind   string
	createBaseline bool
	stagedOnly     bool
	changedOnly    bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [files...]",
	Short: "Evaluate assessments and templates",
	Long: `Evaluate validates documents against the schemas, scores every assessment and
prints compliance, ranking and per-bucket counts.

Without arguments every document under the project root is evaluated. Files
outside assessments/ and templates/ need --kind.`,
	Example: `  assesskit evaluate
  assesskit evaluate assessments/handle.json
  assesskit evaluate --kind assessment exports/doi.yaml
  assesskit evaluate --create-baseline
  assesskit evaluate --staged`,
	Run: func(cmd *cobra.Command, args []string) {
		kind := discovery.FileTypeUnknown
		if evaluateKind != "" {
			k, err := discovery.ParseFileType(evaluateKind)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				exitFunc(1)
				return
			}
			kind = k
		}

		failed, err := runEvaluate(cmd, evaluateRequest{
			paths:          args,
			kind:           kind,
			createBaseline: createBaseline,
			staged:         stagedOnly,
			changed:        changedOnly,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if failed {
			exitFunc(1)
		}
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateKind, "kind", "", "Treat every file as this kind (assessment|template)")
	evaluateCmd.Flags().BoolVar(&createBaseline, "create-baseline", false, "Record every current issue in the baseline file")
	evaluateCmd.Flags().BoolVar(&stagedOnly, "staged", false, "Evaluate only documents staged in git")
	evaluateCmd.Flags().BoolVar(&changedOnly, "changed", false, "Evaluate only documents with uncommitted changes")
	evaluateCmd.MarkFlagsMutuallyExclusive("staged", "changed")
	rootCmd.AddCommand(evaluateCmd)
}
