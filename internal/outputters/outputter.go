package outputters

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dotcommander/assesskit/internal/cli"
	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/output"
)

// Formatter renders an evaluation summary.
type Formatter interface {
	Format(summary *cli.EvaluationSummary) error
}

// FormatterFactory builds a Formatter for a format name.
type FormatterFactory interface {
	CreateFormatter(format string) (Formatter, error)
}

// DefaultFormatterFactory builds the console, json and markdown formatters
// from the configuration.
type DefaultFormatterFactory struct {
	cfg *config.Config
	w   io.Writer
}

// NewDefaultFormatterFactory creates a factory writing to w.
func NewDefaultFormatterFactory(cfg *config.Config, w io.Writer) *DefaultFormatterFactory {
	return &DefaultFormatterFactory{cfg: cfg, w: w}
}

// CreateFormatter implements FormatterFactory.
func (f *DefaultFormatterFactory) CreateFormatter(format string) (Formatter, error) {
	switch format {
	case "console":
		return output.NewConsoleFormatter(f.w, f.cfg.Quiet, f.cfg.Verbose), nil
	case "json":
		return output.NewJSONFormatter(f.w, true, f.cfg.Output), nil
	case "markdown":
		return output.NewMarkdownFormatter(f.w, f.cfg.Verbose, f.cfg.Output), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter handles output formatting
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
}

// NewOutputter creates a new Outputter writing to w.
func NewOutputter(cfg *config.Config, w io.Writer) *Outputter {
	return NewOutputterWithFactory(cfg, NewDefaultFormatterFactory(cfg, w))
}

// NewOutputterWithFactory creates an Outputter with a custom factory.
func NewOutputterWithFactory(cfg *config.Config, factory FormatterFactory) *Outputter {
	return &Outputter{
		config:  cfg,
		factory: factory,
	}
}

// Format formats the evaluation summary using the named format
func (o *Outputter) Format(summary *cli.EvaluationSummary, format string) error {
	if summary == nil {
		return errors.New("no evaluation summary")
	}
	if summary.StartTime.IsZero() {
		summary.StartTime = time.Now()
	}
	if summary.ProjectRoot == "" {
		summary.ProjectRoot = o.config.Root
	}

	formatter, err := o.factory.CreateFormatter(format)
	if err != nil {
		return err
	}
	return formatter.Format(summary)
}
