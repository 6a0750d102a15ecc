package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/outputters"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Check documents against the schemas",
	Long: `Validate checks assessment and template documents against the CUE schemas
and the tree integrity rules. Compliance does not affect the exit code: only
unreadable or schema-invalid documents do.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		cfg.Schemas.Enabled = true

		summary, err := evaluateDocuments(cmd.Context(), cfg, newLogger(cfg, cmd.ErrOrStderr()), args, discovery.FileTypeUnknown, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if err := outputters.NewOutputter(cfg, cmd.OutOrStdout()).Format(summary, cfg.Format); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if summary.FailedFiles > 0 {
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
