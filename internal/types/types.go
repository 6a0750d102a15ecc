// Package types provides shared types used across the assesskit codebase.
// This package is at the bottom of the dependency graph and should not import
// any other internal packages to avoid circular dependencies.
package types

import "fmt"

// Issue represents a structural or validation problem found in a document.
// Issues are reported, never thrown: evaluation continues past them.
type Issue struct {
	File     string `json:"file,omitempty"`
	Path     string `json:"path,omitempty"` // location in the tree, e.g. principles[0].criteria[2]
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning, info
	Source   string `json:"source"`   // schema, integrity, input, reference
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return fmt.Sprintf("%s: %s", i.Path, i.Message)
}

// Issue source constants.
const (
	SourceSchema    = "schema"    // CUE document schema
	SourceIntegrity = "integrity" // tree shape checks during evaluation
	SourceInput     = "input"     // document could not be read or decoded
	SourceReference = "reference" // links between documents
)

// Severity level constants.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Document kind constants.
const (
	KindAssessment = "assessment"
	KindTemplate   = "template"
)
