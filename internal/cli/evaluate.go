// Package cli runs batch evaluation: discover documents, check them against
// the schemas, score every assessment and collect the outcome per file.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/assesskit/internal/baseline"
	"github.com/dotcommander/assesskit/internal/crossfile"
	"github.com/dotcommander/assesskit/internal/cue"
	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/types"
)

// Options configures an Evaluator.
type Options struct {
	Root           string
	FollowSymlinks bool
	SchemasEnabled bool
	Concurrency    int
	Baseline       *baseline.Baseline
	Logger         *slog.Logger
}

// Evaluator loads, validates and scores documents.
type Evaluator struct {
	opts      Options
	validator *cue.Validator
	logger    *slog.Logger
}

// NewEvaluator prepares an evaluator. Schemas are compiled once here.
func NewEvaluator(opts Options) (*Evaluator, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", opts.Root, err)
	}
	opts.Root = root
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Evaluator{opts: opts, logger: logger}
	if opts.SchemasEnabled {
		v := cue.NewValidator()
		if err := v.LoadSchemas(); err != nil {
			return nil, fmt.Errorf("loading schemas: %w", err)
		}
		e.validator = v
	}
	return e, nil
}

// Root returns the absolute evaluation root.
func (e *Evaluator) Root() string { return e.opts.Root }

// EvaluateRoot discovers every document under the root and evaluates it.
func (e *Evaluator) EvaluateRoot(ctx context.Context) (*EvaluationSummary, error) {
	start := time.Now()
	files, err := discovery.NewFileDiscovery(e.opts.Root, e.opts.FollowSymlinks).DiscoverFiles()
	if err != nil {
		return nil, fmt.Errorf("error discovering documents: %w", err)
	}
	e.logger.Debug("documents discovered", "root", e.opts.Root, "count", len(files))
	return e.evaluateAll(ctx, start, files, true)
}

// EvaluateFiles evaluates the named files. With kind FileTypeUnknown the
// kind of each file is detected from its path.
func (e *Evaluator) EvaluateFiles(ctx context.Context, paths []string, kind discovery.FileType) (*EvaluationSummary, error) {
	start := time.Now()
	var files []discovery.File
	var failed []EvaluationResult

	for _, p := range paths {
		f, err := e.loadFile(p, kind)
		if err != nil {
			failed = append(failed, inputFailure(p, kind, err))
			continue
		}
		files = append(files, f)
	}

	summary, err := e.evaluateAll(ctx, start, files, false)
	if err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		summary.Results = append(summary.Results, failed...)
		sortResults(summary.Results)
		summary.recalculate()
	}
	return summary, nil
}

func (e *Evaluator) loadFile(path string, kind discovery.FileType) (discovery.File, error) {
	abs, err := discovery.ValidateFilePath(path)
	if err != nil {
		return discovery.File{}, err
	}
	if kind == discovery.FileTypeUnknown {
		kind, err = discovery.DetectFileType(abs, e.opts.Root)
		if err != nil {
			return discovery.File{}, err
		}
	}
	contents, err := os.ReadFile(abs)
	if err != nil {
		return discovery.File{}, fmt.Errorf("cannot read file: %w", err)
	}
	rel, err := filepath.Rel(e.opts.Root, abs)
	if err != nil {
		rel = abs
	}
	return discovery.File{
		Path:     abs,
		RelPath:  filepath.ToSlash(rel),
		Size:     int64(len(contents)),
		Type:     kind,
		Contents: contents,
	}, nil
}

// evaluateAll scores files concurrently. crossCheck enables the checks that
// need the complete document set.
func (e *Evaluator) evaluateAll(ctx context.Context, start time.Time, files []discovery.File, crossCheck bool) (*EvaluationSummary, error) {
	results := make([]EvaluationResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluateFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var unused []string
	if crossCheck {
		unused = e.crossCheck(results)
	}

	ignored := 0
	for i := range results {
		ignored += e.applyBaseline(&results[i])
	}

	sortResults(results)
	summary := &EvaluationSummary{
		ProjectRoot:     e.opts.Root,
		StartTime:       start,
		IgnoredIssues:   ignored,
		Results:         results,
		UnusedTemplates: unused,
	}
	summary.recalculate()
	summary.Duration = time.Since(start).Milliseconds()

	e.logger.Info("evaluation finished",
		"files", summary.TotalFiles,
		"compliant", summary.Compliant,
		"noncompliant", summary.NonCompliant,
		"unresolved", summary.Unresolved,
		"errors", summary.TotalErrors,
		"warnings", summary.TotalWarnings)
	return summary, nil
}

// evaluateFile never fails: every problem becomes an issue on the result.
func (e *Evaluator) evaluateFile(f discovery.File) (result EvaluationResult) {
	start := time.Now()
	result = EvaluationResult{File: f.RelPath, Kind: f.Type.String()}
	defer func() {
		result.Duration = time.Since(start).Milliseconds()
	}()

	format := model.FormatFromPath(f.Path)
	raw, err := model.DecodeMap(f.Contents, format)
	if err != nil {
		result.Errors = append(result.Errors, inputIssue(f.RelPath, err))
		return result.finish()
	}

	if e.validator != nil {
		issues, err := e.validator.ValidateFile(f.RelPath, f.Contents, result.Kind)
		if err != nil {
			result.Errors = append(result.Errors, inputIssue(f.RelPath, err))
		}
		result.Errors = append(result.Errors, issues...)
		if len(result.Errors) > 0 {
			e.logger.Debug("schema validation failed", "file", f.RelPath, "issues", len(result.Errors))
			return result.finish()
		}
	}

	var tree *model.Assessment
	switch f.Type {
	case discovery.FileTypeTemplate:
		var t model.Template
		if err := model.FromMap(raw, &t); err != nil {
			result.Errors = append(result.Errors, inputIssue(f.RelPath, err))
			return result.finish()
		}
		result.ID, result.Name = t.ID, t.Name
		tree = &model.Assessment{Principles: t.Principles}
	default:
		var a model.Assessment
		if err := model.FromMap(raw, &a); err != nil {
			result.Errors = append(result.Errors, inputIssue(f.RelPath, err))
			return result.finish()
		}
		result.ID, result.Name, result.TemplateID = a.ID, a.Name, a.TemplateID
		tree = &a
	}

	stats := scoring.EvaluateAssessment(tree)
	for _, w := range stats.Warnings {
		w.File = f.RelPath
		result.Warnings = append(result.Warnings, w)
	}
	if f.Type != discovery.FileTypeTemplate {
		result.Stats = &stats
	}

	if len(result.Warnings) > 0 {
		e.logger.Warn("malformed nodes skipped", "file", f.RelPath, "warnings", len(result.Warnings))
	}
	e.logger.Debug("document evaluated",
		"file", f.RelPath,
		"kind", result.Kind,
		"ranking", stats.Ranking,
		"compliance", stats.Compliance.String())
	return result.finish()
}

// crossCheck adds reference warnings to results and returns the unused
// template ids.
func (e *Evaluator) crossCheck(results []EvaluationResult) []string {
	docs := make([]crossfile.Document, 0, len(results))
	for _, r := range results {
		docs = append(docs, crossfile.Document{File: r.File, Kind: r.Kind, ID: r.ID, TemplateID: r.TemplateID})
	}
	v := crossfile.NewCrossFileValidator(docs)
	byFile := v.Validate()
	for i := range results {
		if issues, ok := byFile[results[i].File]; ok {
			results[i].Warnings = append(results[i].Warnings, issues...)
			e.logger.Debug("reference issues", "file", results[i].File, "count", len(issues))
		}
	}
	return v.FindUnusedTemplates()
}

func (e *Evaluator) applyBaseline(r *EvaluationResult) int {
	if e.opts.Baseline == nil {
		return 0
	}
	var errIgnored, warnIgnored int
	r.Errors, errIgnored = e.opts.Baseline.Filter(r.Errors)
	r.Warnings, warnIgnored = e.opts.Baseline.Filter(r.Warnings)
	r.finish()
	return errIgnored + warnIgnored
}

func inputIssue(file string, err error) types.Issue {
	return types.Issue{
		File:     file,
		Message:  err.Error(),
		Severity: types.SeverityError,
		Source:   types.SourceInput,
	}
}

func inputFailure(path string, kind discovery.FileType, err error) EvaluationResult {
	r := EvaluationResult{
		File:   filepath.ToSlash(path),
		Kind:   kind.String(),
		Errors: []types.Issue{inputIssue(filepath.ToSlash(path), err)},
	}
	return r.finish()
}

func sortResults(results []EvaluationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].File < results[j].File
	})
}

// CollectAllIssues gathers every error and warning, for baseline creation.
func CollectAllIssues(summary *EvaluationSummary) []types.Issue {
	var issues []types.Issue
	for _, r := range summary.Results {
		issues = append(issues, r.Errors...)
		issues = append(issues, r.Warnings...)
	}
	return issues
}
