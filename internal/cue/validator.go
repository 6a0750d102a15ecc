// Package cue checks assessment and template documents against embedded CUE
// schemas before they reach the scoring engine.
package cue

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/types"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// definitions maps a document kind to its top-level schema definition.
var definitions = map[string]string{
	types.KindAssessment: "#Assessment",
	types.KindTemplate:   "#Template",
}

// Validator handles CUE validation
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas compiles the embedded schema files. They share node
// definitions, so they are compiled as one source.
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("could not read embedded schemas: %w", err)
	}

	var src bytes.Buffer
	src.WriteString("package schemas\n")
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return fmt.Errorf("reading schema %s: %w", entry.Name(), err)
		}
		writeWithoutPackage(&src, content)
	}

	inst := v.ctx.CompileBytes(src.Bytes(), cue.Filename("schemas.cue"))
	if err := inst.Err(); err != nil {
		return fmt.Errorf("compiling schemas: %w", err)
	}

	for kind, def := range definitions {
		value := inst.LookupPath(cue.ParsePath(def))
		if !value.Exists() {
			continue
		}
		v.schemas[kind] = value
	}
	if len(v.schemas) == 0 {
		return fmt.Errorf("no schema definitions found")
	}
	return nil
}

func writeWithoutPackage(dst *bytes.Buffer, content []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "package ") {
			continue
		}
		dst.WriteString(line)
		dst.WriteByte('\n')
	}
}

// Loaded reports whether a schema for kind is available.
func (v *Validator) Loaded(kind string) bool {
	_, ok := v.schemas[kind]
	return ok
}

// ValidateAssessment validates assessment data against #Assessment.
func (v *Validator) ValidateAssessment(data map[string]any) ([]types.Issue, error) {
	return v.validate(types.KindAssessment, data)
}

// ValidateTemplate validates template data against #Template.
func (v *Validator) ValidateTemplate(data map[string]any) ([]types.Issue, error) {
	return v.validate(types.KindTemplate, data)
}

// ValidateFile parses content by its extension and validates it as kind.
// Parse failures are reported as issues, not errors.
func (v *Validator) ValidateFile(filePath string, content []byte, kind string) ([]types.Issue, error) {
	data, err := model.DecodeMap(content, model.FormatFromPath(filePath))
	if err != nil {
		return []types.Issue{{
			File:     filePath,
			Message:  err.Error(),
			Severity: types.SeverityError,
			Source:   types.SourceInput,
		}}, nil
	}

	issues, err := v.validate(kind, data)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		issues[i].File = filePath
	}
	return issues, nil
}

func (v *Validator) validate(kind string, data map[string]any) ([]types.Issue, error) {
	if _, known := definitions[kind]; !known {
		return nil, fmt.Errorf("unknown document kind: %s", kind)
	}
	schema, ok := v.schemas[kind]
	if !ok {
		// schemas not loaded; structural checks fall to the evaluator
		return nil, nil
	}

	dataValue := v.ctx.Encode(data)
	if err := dataValue.Err(); err != nil {
		return nil, fmt.Errorf("error encoding data: %w", err)
	}

	unified := schema.Unify(dataValue)
	if err := unified.Err(); err != nil {
		return extractIssues(err), nil
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return extractIssues(err), nil
	}
	return nil, nil
}

// extractIssues flattens a CUE error list into one issue per failure.
func extractIssues(err error) []types.Issue {
	var issues []types.Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		issues = append(issues, types.Issue{
			Path:     strings.Join(e.Path(), "."),
			Message:  fmt.Sprintf(format, args...),
			Severity: types.SeverityError,
			Source:   types.SourceSchema,
		})
	}
	if len(issues) == 0 {
		issues = append(issues, types.Issue{
			Message:  fmt.Sprintf("schema validation failed: %v", err),
			Severity: types.SeverityError,
			Source:   types.SourceSchema,
		})
	}
	return issues
}
