package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/assesskit/internal/baseline"
	"github.com/dotcommander/assesskit/internal/config"
	"github.com/dotcommander/assesskit/internal/discovery"
	"github.com/dotcommander/assesskit/internal/scoring"
	"github.com/dotcommander/assesskit/internal/types"
)

// assessmentJSON renders a one-criterion assessment with the given test result.
func assessmentJSON(name, result string) string {
	return fmt.Sprintf(`{
  "id": %q,
  "name": %q,
  "principles": [
    {
      "id": "P1",
      "criteria": [
        {
          "id": "C1",
          "imperative": "MUST",
          "metric": {
            "id": "M1",
            "algorithm": "single",
            "benchmark_value": 1,
            "tests": [{"id": "T1", "type": "Binary-Binary", "result": %s}]
          }
        }
      ]
    }
  ]
}`, name, name, result)
}

const templateYAML = `id: owner
name: PID Owner
principles:
  - id: P1
    criteria:
      - id: C1
        imperative: SHOULD
        metric:
          benchmark_value: 1
          tests:
            - id: T1
              type: Binary-Binary
              result: null
`

const malformedJSON = `{
  "name": "malformed",
  "principles": [
    {"id": "P1", "criteria": []},
    {"id": "P2", "criteria": [
      {"id": "C1", "imperative": "MUST"},
      {"id": "C2", "imperative": "MAY", "metric": {
        "benchmark_value": 1,
        "tests": [{"id": "T1", "type": "Binary-Binary", "result": 1}]
      }}
    ]}
  ]
}`

func writeDoc(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fixtureRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeDoc(t, root, "assessments/compliant.json", assessmentJSON("compliant", "1"))
	writeDoc(t, root, "assessments/failing.json", assessmentJSON("failing", "0"))
	writeDoc(t, root, "assessments/open.json", assessmentJSON("open", "null"))
	writeDoc(t, root, "assessments/malformed.json", malformedJSON)
	writeDoc(t, root, "assessments/invalid.json", `{"name": 3, "principles": []}`)
	writeDoc(t, root, "templates/owner.yaml", templateYAML)
	return root
}

func newEvaluator(t *testing.T, root string, b *baseline.Baseline) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(Options{Root: root, SchemasEnabled: true, Concurrency: 3, Baseline: b})
	require.NoError(t, err)
	return e
}

func resultFor(t *testing.T, s *EvaluationSummary, file string) EvaluationResult {
	t.Helper()
	for _, r := range s.Results {
		if r.File == file {
			return r
		}
	}
	t.Fatalf("no result for %s", file)
	return EvaluationResult{}
}

func TestEvaluateRoot(t *testing.T) {
	root := fixtureRoot(t)
	summary, err := newEvaluator(t, root, nil).EvaluateRoot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalFiles)
	assert.Equal(t, 4, summary.Assessments, "invalid document is not scored")
	assert.Equal(t, 1, summary.Templates)
	assert.Equal(t, 2, summary.Compliant, "compliant.json and malformed.json")
	assert.Equal(t, 1, summary.NonCompliant)
	assert.Equal(t, 1, summary.Unresolved)
	assert.Equal(t, 1, summary.FailedFiles)

	compliant := resultFor(t, summary, "assessments/compliant.json")
	assert.True(t, compliant.Success)
	assert.Equal(t, scoring.Pass, compliant.Compliance())
	assert.Equal(t, 1, compliant.Ranking())

	failing := resultFor(t, summary, "assessments/failing.json")
	assert.Equal(t, scoring.Fail, failing.Compliance())
	assert.Equal(t, 0, failing.Ranking())

	open := resultFor(t, summary, "assessments/open.json")
	assert.Equal(t, scoring.Unresolved, open.Compliance())

	invalid := resultFor(t, summary, "assessments/invalid.json")
	assert.False(t, invalid.Success)
	assert.False(t, invalid.Scored())
	require.NotEmpty(t, invalid.Errors)
	assert.Equal(t, types.SourceSchema, invalid.Errors[0].Source)

	tpl := resultFor(t, summary, "templates/owner.yaml")
	assert.True(t, tpl.Success)
	assert.Equal(t, "owner", tpl.ID)
	assert.Nil(t, tpl.Stats)
}

func TestEvaluateMalformedTree(t *testing.T) {
	root := fixtureRoot(t)
	summary, err := newEvaluator(t, root, nil).EvaluateRoot(context.Background())
	require.NoError(t, err)

	r := resultFor(t, summary, "assessments/malformed.json")
	assert.True(t, r.Success, "integrity warnings do not fail a document")
	require.Len(t, r.Warnings, 2)
	for _, w := range r.Warnings {
		assert.Equal(t, types.SourceIntegrity, w.Source)
		assert.Equal(t, "assessments/malformed.json", w.File)
	}
	assert.Equal(t, "principles[0]", r.Warnings[0].Path)
	assert.Equal(t, "principles[1].criteria[0]", r.Warnings[1].Path)

	// no valid mandatory criteria left: trivially compliant, optional C2 ranks
	assert.Equal(t, scoring.Pass, r.Compliance())
	assert.Equal(t, 1, r.Ranking())
}

func TestEvaluateFiles(t *testing.T) {
	root := fixtureRoot(t)
	e := newEvaluator(t, root, nil)

	summary, err := e.EvaluateFiles(context.Background(), []string{
		filepath.Join(root, "assessments", "compliant.json"),
		filepath.Join(root, "templates", "owner.yaml"),
		filepath.Join(root, "assessments", "missing.json"),
	}, discovery.FileTypeUnknown)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 1, summary.Compliant)
	assert.Equal(t, 1, summary.Templates)
	assert.Equal(t, 1, summary.FailedFiles)

	loose := writeDoc(t, root, "elsewhere/doc.json", assessmentJSON("loose", "1"))
	summary, err = e.EvaluateFiles(context.Background(), []string{loose}, discovery.FileTypeUnknown)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.False(t, summary.Results[0].Success)
	assert.Contains(t, summary.Results[0].Errors[0].Message, "cannot determine kind")

	summary, err = e.EvaluateFiles(context.Background(), []string{loose}, discovery.FileTypeAssessment)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Compliant)
	assert.Equal(t, "elsewhere/doc.json", summary.Results[0].File)
}

func TestEvaluateWithoutSchemas(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "assessments/a.yaml", "name: a\nprinciples: []\n")
	writeDoc(t, root, "assessments/broken.json", `{"name": `)

	e, err := NewEvaluator(Options{Root: root})
	require.NoError(t, err)
	summary, err := e.EvaluateRoot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Compliant, "no mandatory criteria")
	broken := resultFor(t, summary, "assessments/broken.json")
	require.Len(t, broken.Errors, 1)
	assert.Equal(t, types.SourceInput, broken.Errors[0].Source)
}

func TestEvaluateBaseline(t *testing.T) {
	root := fixtureRoot(t)
	first, err := newEvaluator(t, root, nil).EvaluateRoot(context.Background())
	require.NoError(t, err)
	require.NotZero(t, first.TotalErrors+first.TotalWarnings)

	b := baseline.CreateBaseline(CollectAllIssues(first))
	second, err := newEvaluator(t, root, b).EvaluateRoot(context.Background())
	require.NoError(t, err)

	assert.Zero(t, second.TotalErrors)
	assert.Zero(t, second.TotalWarnings)
	assert.Equal(t, first.TotalErrors+first.TotalWarnings, second.IgnoredIssues)
	assert.Zero(t, second.FailedFiles)
}

func TestEvaluateCancelled(t *testing.T) {
	root := fixtureRoot(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEvaluator(t, root, nil).EvaluateRoot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShouldFail(t *testing.T) {
	tests := []struct {
		name    string
		summary EvaluationSummary
		policy  string
		want    bool
	}{
		{"clean", EvaluationSummary{Compliant: 2}, config.FailOnNoncompliant, false},
		{"noncompliant", EvaluationSummary{NonCompliant: 1}, config.FailOnNoncompliant, true},
		{"unresolved tolerated", EvaluationSummary{Unresolved: 1}, config.FailOnNoncompliant, false},
		{"unresolved strict", EvaluationSummary{Unresolved: 1}, config.FailOnUnresolved, true},
		{"invalid file", EvaluationSummary{FailedFiles: 1}, config.FailOnNoncompliant, true},
		{"never", EvaluationSummary{NonCompliant: 3, FailedFiles: 1}, config.FailOnNever, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.ShouldFail(tt.policy))
		})
	}
}

func TestEvaluateRootCrossFile(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "templates/owner.yaml", templateYAML)
	writeDoc(t, root, "templates/manager.yaml", strings.Replace(templateYAML, "id: owner", "id: manager", 1))
	linked := strings.Replace(assessmentJSON("handle", "1"), `"name": "handle",`, `"name": "handle", "template_id": "owner",`, 1)
	writeDoc(t, root, "assessments/handle.json", linked)
	dangling := strings.Replace(assessmentJSON("doi", "1"), `"name": "doi",`, `"name": "doi", "template_id": "gone",`, 1)
	writeDoc(t, root, "assessments/doi.json", dangling)
	writeDoc(t, root, "assessments/doi-copy.json", dangling)

	summary, err := newEvaluator(t, root, nil).EvaluateRoot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"manager"}, summary.UnusedTemplates)
	assert.Equal(t, "owner", resultFor(t, summary, "assessments/handle.json").TemplateID)
	assert.Empty(t, resultFor(t, summary, "assessments/handle.json").Warnings)

	doi := resultFor(t, summary, "assessments/doi.json")
	require.Len(t, doi.Warnings, 2, "missing template and duplicate id")
	for _, w := range doi.Warnings {
		assert.Equal(t, types.SourceReference, w.Source)
	}
	assert.True(t, doi.Success, "reference issues are warnings")

	// explicit file lists skip the checks that need every document
	summary, err = newEvaluator(t, root, nil).EvaluateFiles(context.Background(),
		[]string{filepath.Join(root, "assessments", "doi.json")}, discovery.FileTypeUnknown)
	require.NoError(t, err)
	assert.Empty(t, summary.Results[0].Warnings)
	assert.Nil(t, summary.UnusedTemplates)
}
