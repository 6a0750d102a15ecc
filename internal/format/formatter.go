// Package format rewrites assessment and template documents in canonical
// form: model field order, two-space JSON indentation and, for assessments,
// metric values and the result summary recomputed from the answers.
package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/scoring"
)

// Formatter formats documents canonically.
type Formatter interface {
	// Format returns the canonical encoding of content. Fields the model
	// does not know are dropped.
	Format(content []byte) ([]byte, error)
}

// NewDocumentFormatter creates a formatter for a document kind and encoding.
func NewDocumentFormatter(kind discovery.FileType, format model.Format) Formatter {
	if kind == discovery.FileTypeTemplate {
		return &TemplateFormatter{Encoding: format}
	}
	return &AssessmentFormatter{Encoding: format}
}

// AssessmentFormatter refreshes derived scores while formatting.
type AssessmentFormatter struct {
	Encoding model.Format
}

// Format implements Formatter.
func (f *AssessmentFormatter) Format(content []byte) ([]byte, error) {
	a, err := model.DecodeAssessment(content, f.Encoding)
	if err != nil {
		return nil, err
	}
	scoring.ApplyAssessment(a)
	return model.EncodeAssessment(a, f.Encoding)
}

// TemplateFormatter only normalizes layout.
type TemplateFormatter struct {
	Encoding model.Format
}

// Format implements Formatter.
func (f *TemplateFormatter) Format(content []byte) ([]byte, error) {
	t, err := model.DecodeTemplate(content, f.Encoding)
	if err != nil {
		return nil, err
	}
	return model.EncodeTemplate(t, f.Encoding)
}

// Diff computes a simple line diff between original and formatted content.
// Returns empty string if contents are identical.
func Diff(original, formatted, filename string) string {
	if original == formatted {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", filename)
	fmt.Fprintf(&buf, "+++ %s (formatted)\n", filename)

	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")
	for i := 0; i < max(len(origLines), len(fmtLines)); i++ {
		var origLine, fmtLine string
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}
		if origLine == fmtLine {
			continue
		}
		if origLine != "" {
			fmt.Fprintf(&buf, "- %s\n", origLine)
		}
		if fmtLine != "" {
			fmt.Fprintf(&buf, "+ %s\n", fmtLine)
		}
	}
	return buf.String()
}
