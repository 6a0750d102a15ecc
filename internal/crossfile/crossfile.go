// Package crossfile checks the links between documents of one project:
// assessments must name a template that exists, and ids must be unique per
// document kind.
package crossfile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dotcommander/assesskit/internal/types"
)

// Document is the part of an evaluated document the cross-file checks need.
type Document struct {
	File       string
	Kind       string
	ID         string
	TemplateID string // assessments only
}

// CrossFileValidator validates references between documents.
type CrossFileValidator struct {
	docs      []Document
	templates map[string][]string // id -> files
	ids       map[string]map[string][]string
}

// NewCrossFileValidator creates a validator with indexed documents.
// Documents without an id are not indexed.
func NewCrossFileValidator(docs []Document) *CrossFileValidator {
	v := &CrossFileValidator{
		docs:      docs,
		templates: make(map[string][]string),
		ids:       make(map[string]map[string][]string),
	}
	for _, d := range docs {
		if d.ID == "" {
			continue
		}
		if d.Kind == types.KindTemplate {
			v.templates[d.ID] = append(v.templates[d.ID], d.File)
		}
		byID, ok := v.ids[d.Kind]
		if !ok {
			byID = make(map[string][]string)
			v.ids[d.Kind] = byID
		}
		byID[d.ID] = append(byID[d.ID], d.File)
	}
	return v
}

// Validate runs every check and returns the warnings keyed by file.
func (v *CrossFileValidator) Validate() map[string][]types.Issue {
	out := make(map[string][]types.Issue)
	for _, d := range v.docs {
		var issues []types.Issue
		issues = append(issues, v.ValidateTemplateReference(d)...)
		issues = append(issues, v.ValidateUniqueID(d)...)
		if len(issues) > 0 {
			out[d.File] = append(out[d.File], issues...)
		}
	}
	return out
}

// ValidateTemplateReference reports an assessment whose template_id matches
// no indexed template. Without any template in the set nothing is reported,
// since the templates may live elsewhere.
func (v *CrossFileValidator) ValidateTemplateReference(d Document) []types.Issue {
	if d.Kind == types.KindTemplate || d.TemplateID == "" || len(v.templates) == 0 {
		return nil
	}
	if _, ok := v.templates[d.TemplateID]; ok {
		return nil
	}
	return []types.Issue{{
		File:     d.File,
		Path:     "template_id",
		Message:  fmt.Sprintf("template %q not found (known: %s)", d.TemplateID, strings.Join(v.templateIDs(), ", ")),
		Severity: types.SeverityWarning,
		Source:   types.SourceReference,
	}}
}

// ValidateUniqueID reports an id shared with other documents of the same kind.
func (v *CrossFileValidator) ValidateUniqueID(d Document) []types.Issue {
	if d.ID == "" {
		return nil
	}
	files := v.ids[d.Kind][d.ID]
	if len(files) < 2 {
		return nil
	}
	var others []string
	for _, f := range files {
		if f != d.File {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	return []types.Issue{{
		File:     d.File,
		Path:     "id",
		Message:  fmt.Sprintf("%s id %q is also used by %s", d.Kind, d.ID, strings.Join(others, ", ")),
		Severity: types.SeverityWarning,
		Source:   types.SourceReference,
	}}
}

// FindUnusedTemplates returns the ids of templates no assessment refers to.
func (v *CrossFileValidator) FindUnusedTemplates() []string {
	used := make(map[string]bool)
	for _, d := range v.docs {
		if d.Kind != types.KindTemplate && d.TemplateID != "" {
			used[d.TemplateID] = true
		}
	}
	var unused []string
	for id := range v.templates {
		if !used[id] {
			unused = append(unused, id)
		}
	}
	sort.Strings(unused)
	return unused
}

func (v *CrossFileValidator) templateIDs() []string {
	ids := make([]string, 0, len(v.templates))
	for id := range v.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
