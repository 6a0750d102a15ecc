package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/output"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted assessments",
	Long: `List prints every assessment in the store with its compliance and ranking.
The ids it shows are the ones answer --id takes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if err := runList(cfg, newLogger(cfg, cmd.ErrOrStderr()), cmd.OutOrStdout()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cfg *config.Config, logger *slog.Logger, w io.Writer) error {
	fs := store.New(cfg.StoreDir, logger)
	ids, err := fs.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintf(w, "No assessments in %s\n", fs.Dir())
		return nil
	}

	for _, id := range ids {
		a, err := fs.Get(id)
		if err != nil {
			// one unreadable file does not hide the rest
			logger.Warn("skipping stored assessment", "id", id, "error", err)
			continue
		}
		stats := scoring.EvaluateAssessment(a)
		fmt.Fprintf(w, "%s  %-13s  ranking %-3d %s\n", id, output.ComplianceLabel(stats.Compliance), stats.Ranking, a.Name)
	}
	return nil
}
