package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/assesskit/internal/baseline"
	"github.com/dotcommander/assesskit/internal/cli"
	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/git"
	"github.com/dotcommander/assesskit/internal/outputters"
	"github.com/dotcommander/assesskit/internal/project"
)

var (
	rootPath       string
	quiet          bool
	verbose        bool
	outputFormat   string
	outputFile     string
	failOn         string
	storeDir       string
	baselinePath   string
	noSchemas      bool
	followSymlinks bool
)

// exitFunc is replaced in tests.
var exitFunc = os.Exit

const defaultBaselineFile = ".assesskit-baseline.json"

var rootCmd = &cobra.Command{
	Use:   "assesskit",
	Short: "Evaluate PID compliance assessments",
	Long: `assesskit scores compliance assessments built from templates of
principles, criteria, metrics and tests.

Without a subcommand every assessment and template under the project root is
validated and evaluated, and the run fails according to --fail-on.`,
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runEvaluate(cmd, evaluateRequest{})
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

// Execute runs the command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootPath, "root", "r", "", "Project root directory (default: nearest directory with assessments/, templates/ or a config file)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVarP(&outputFormat, "format", "f", "console", "Output format for reports (console|json|markdown)")
	flags.StringVarP(&outputFile, "output", "o", "", "Output file for json and markdown reports")
	flags.StringVar(&failOn, "fail-on", config.FailOnNoncompliant, "Exit non-zero on (never|unresolved|noncompliant)")
	flags.StringVar(&storeDir, "store-dir", "", "Directory submitted assessments are stored in")
	flags.StringVar(&baselinePath, "baseline", "", "Baseline file of known issues to suppress")
	flags.BoolVar(&noSchemas, "no-schemas", false, "Skip CUE schema validation")
	flags.BoolVar(&followSymlinks, "follow-symlinks", false, "Follow symlinks that stay inside the root")

	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("failOn", flags.Lookup("fail-on"))
	_ = viper.BindPFlag("storeDir", flags.Lookup("store-dir"))
	_ = viper.BindPFlag("baseline", flags.Lookup("baseline"))
	_ = viper.BindPFlag("followSymlinks", flags.Lookup("follow-symlinks"))
}

// loadConfig merges defaults, config file, environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(rootPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if rootPath == "" && cfg.Root == "." {
		root, err := project.FindProjectRoot(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("error detecting project root: %w", err)
		}
		cfg.Root = root
	}
	if f := cmd.Flags().Lookup("no-schemas"); f != nil && f.Changed {
		cfg.Schemas.Enabled = !noSchemas
	}
	return cfg, nil
}

// newLogger writes diagnostics to w. Reports never go through it.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case cfg.Verbose:
		level = slog.LevelDebug
	case cfg.Quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// evaluateRequest selects what runEvaluate evaluates.
type evaluateRequest struct {
	paths          []string // empty means the whole root
	kind           discovery.FileType
	createBaseline bool
	staged         bool // only documents staged in git
	changed        bool // only documents with uncommitted changes
}

// runEvaluate evaluates the requested documents and prints the report.
// failed is the outcome of the fail-on policy.
func runEvaluate(cmd *cobra.Command, req evaluateRequest) (failed bool, err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return false, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	if req.staged || req.changed {
		paths, err := gitDocuments(cfg.Root, req.staged)
		if err != nil {
			return false, err
		}
		if len(paths) == 0 {
			if !cfg.Quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "No changed documents")
			}
			return false, nil
		}
		logger.Debug("documents selected from git", "count", len(paths), "staged", req.staged)
		req.paths = append(req.paths, paths...)
	}

	summary, err := evaluateDocuments(cmd.Context(), cfg, logger, req.paths, req.kind, req.createBaseline)
	if err != nil {
		return false, err
	}
	if err := outputters.NewOutputter(cfg, cmd.OutOrStdout()).Format(summary, cfg.Format); err != nil {
		return false, fmt.Errorf("error formatting output: %w", err)
	}
	if req.createBaseline {
		return false, nil
	}
	return summary.ShouldFail(cfg.FailOn), nil
}

func gitDocuments(root string, staged bool) ([]string, error) {
	if !git.IsGitRepo(root) {
		return nil, fmt.Errorf("%s is not inside a git repository", root)
	}
	if staged {
		return git.GetStagedFiles(root)
	}
	return git.GetChangedFiles(root)
}

func evaluateDocuments(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string, kind discovery.FileType, createBaseline bool) (*cli.EvaluationSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var known *baseline.Baseline
	if cfg.Baseline != "" && !createBaseline {
		b, err := baseline.LoadBaseline(cfg.Baseline)
		if err != nil {
			return nil, err
		}
		known = b
		logger.Debug("baseline loaded", "path", cfg.Baseline, "entries", b.Len())
	}

	evaluator, err := cli.NewEvaluator(cli.Options{
		Root:           cfg.Root,
		FollowSymlinks: cfg.FollowSymlinks,
		SchemasEnabled: cfg.Schemas.Enabled,
		Concurrency:    cfg.Concurrency,
		Baseline:       known,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	var summary *cli.EvaluationSummary
	if len(paths) == 0 {
		summary, err = evaluator.EvaluateRoot(ctx)
	} else {
		summary, err = evaluator.EvaluateFiles(ctx, paths, kind)
	}
	if err != nil {
		return nil, err
	}

	if createBaseline {
		path := cfg.Baseline
		if path == "" {
			path = defaultBaselineFile
		}
		issues := cli.CollectAllIssues(summary)
		if err := baseline.CreateBaseline(issues).SaveBaseline(path); err != nil {
			return nil, err
		}
		logger.Info("baseline written", "path", path, "issues", len(issues))
	}
	return summary, nil
}
