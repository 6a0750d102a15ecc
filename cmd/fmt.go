package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/format"
	"github.com/dotcommander/assesskit/internal/model"
)

type fmtOptions struct {
	check bool
	write bool
	diff  bool
	kind  string
}

var fmtOpts fmtOptions

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format documents canonically",
	Long: `Format rewrites assessment and template documents in canonical form.

  - Fields follow the model order, JSON is indented with two spaces
  - Metric values and results are recomputed from the answers
  - The assessment result summary (compliance, ranking) is refreshed

Fields the model does not know are dropped. Use --diff or --check first on
documents edited by other tools.

Without arguments every document under the project root is formatted.`,
	Example: `  assesskit fmt assessments/handle.json      # print formatted
  assesskit fmt --diff                         # show what would change
  assesskit fmt -w                             # rewrite in place
  assesskit fmt --check                        # exit 1 if anything would change`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		changed, err := runFmt(cfg, args, fmtOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if fmtOpts.check && changed > 0 {
			exitFunc(1)
		}
	},
}

func init() {
	fmtCmd.Flags().BoolVar(&fmtOpts.check, "check", false, "Exit 1 if documents would change (for CI)")
	fmtCmd.Flags().BoolVarP(&fmtOpts.write, "write", "w", false, "Write changes in place")
	fmtCmd.Flags().BoolVar(&fmtOpts.diff, "diff", false, "Show diff of what would change")
	fmtCmd.Flags().StringVar(&fmtOpts.kind, "kind", "", "Treat every file as this kind (assessment|template)")
	fmtCmd.MarkFlagsMutuallyExclusive("check", "write", "diff")
	rootCmd.AddCommand(fmtCmd)
}

// runFmt formats documents and returns how many need (or got) changes.
// Documents that cannot be read or decoded are reported on errw and skipped.
func runFmt(cfg *config.Config, args []string, opts fmtOptions, w, errw io.Writer) (int, error) {
	files, err := collectFilesToFormat(cfg, args, opts.kind)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no documents to format")
	}

	changed := 0
	for _, f := range files {
		formatted, err := format.NewDocumentFormatter(f.Type, model.FormatFromPath(f.Path)).Format(f.Contents)
		if err != nil {
			if !cfg.Quiet {
				fmt.Fprintf(errw, "Skipping %s: %v\n", f.RelPath, err)
			}
			continue
		}

		if string(formatted) == string(f.Contents) {
			if cfg.Verbose {
				fmt.Fprintf(w, "%s already formatted\n", f.RelPath)
			}
			continue
		}
		changed++

		switch {
		case opts.check:
			if !cfg.Quiet {
				fmt.Fprintf(w, "%s needs formatting\n", f.RelPath)
			}
		case opts.diff:
			fmt.Fprint(w, format.Diff(string(f.Contents), string(formatted), f.RelPath))
		case opts.write:
			if err := os.WriteFile(f.Path, formatted, 0644); err != nil {
				return changed, fmt.Errorf("error writing %s: %w", f.Path, err)
			}
			if !cfg.Quiet {
				fmt.Fprintf(w, "Formatted %s\n", f.RelPath)
			}
		default:
			fmt.Fprintln(w, string(formatted))
		}
	}

	if !cfg.Quiet && len(files) > 1 {
		switch {
		case changed == 0:
			fmt.Fprintf(w, "\nAll %d documents already formatted\n", len(files))
		case opts.write:
			fmt.Fprintf(w, "\nFormatted %d of %d documents\n", changed, len(files))
		default:
			fmt.Fprintf(w, "\n%d of %d documents need formatting\n", changed, len(files))
		}
	}
	return changed, nil
}

// collectFilesToFormat reads the named files, or discovers every document
// under the root when none are named.
func collectFilesToFormat(cfg *config.Config, args []string, kindFlag string) ([]discovery.File, error) {
	if len(args) == 0 {
		return discovery.NewFileDiscovery(cfg.Root, cfg.FollowSymlinks).DiscoverFiles()
	}

	kind := discovery.FileTypeUnknown
	if kindFlag != "" {
		k, err := discovery.ParseFileType(kindFlag)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}

	files := make([]discovery.File, 0, len(args))
	for _, arg := range args {
		abs, err := discovery.ValidateFilePath(arg)
		if err != nil {
			return nil, err
		}
		fileKind := kind
		if fileKind == discovery.FileTypeUnknown {
			if fileKind, err = discovery.DetectFileType(abs, root); err != nil {
				return nil, err
			}
		}
		contents, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = abs
		}
		files = append(files, discovery.File{
			Path:     abs,
			RelPath:  filepath.ToSlash(rel),
			Size:     int64(len(contents)),
			Type:     fileKind,
			Contents: contents,
		})
	}
	return files, nil
}
