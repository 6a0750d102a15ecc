// Package baseline records known document issues so that batch evaluation
// only reports new ones. Known issues are grouped per document and keyed by
// the tree node they sit on, so a baseline file can be read and pruned by
// hand.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dotcommander/assesskit/internal/types"
)

// Version is written into every baseline file.
const Version = "2"

// Entry is one known issue on a node of a document tree. Pattern is the
// issue message with its counts and quoted values masked.
type Entry struct {
	Path    string `json:"path,omitempty"`
	Source  string `json:"source"`
	Pattern string `json:"pattern"`
}

func (e Entry) key() string {
	return e.Path + "\x00" + e.Source + "\x00" + e.Pattern
}

// Baseline maps document paths to their known issues.
type Baseline struct {
	Version   string             `json:"version"`
	CreatedAt string             `json:"created_at,omitempty"`
	Documents map[string][]Entry `json:"documents"`
	index     map[string]map[string]bool
}

// entryFor places an issue on its node.
func entryFor(issue types.Issue) Entry {
	return Entry{Path: issue.Path, Source: issue.Source, Pattern: maskMessage(issue.Message)}
}

// CreateBaseline records every distinct issue, per document.
func CreateBaseline(issues []types.Issue) *Baseline {
	b := &Baseline{Version: Version, Documents: make(map[string][]Entry)}
	b.index = make(map[string]map[string]bool)
	for _, issue := range issues {
		e := entryFor(issue)
		if b.index[issue.File][e.key()] {
			continue
		}
		b.add(issue.File, e)
		b.Documents[issue.File] = append(b.Documents[issue.File], e)
	}
	for _, entries := range b.Documents {
		sort.Slice(entries, func(i, j int) bool { return entries[i].key() < entries[j].key() })
	}
	return b
}

func (b *Baseline) add(file string, e Entry) {
	known := b.index[file]
	if known == nil {
		known = make(map[string]bool)
		b.index[file] = known
	}
	known[e.key()] = true
}

// Len counts the recorded entries.
func (b *Baseline) Len() int {
	if b == nil {
		return 0
	}
	n := 0
	for _, entries := range b.Documents {
		n += len(entries)
	}
	return n
}

// LoadBaseline reads a baseline file.
func LoadBaseline(path string) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse baseline file: %w", err)
	}
	if b.Version != Version {
		return nil, fmt.Errorf("baseline %s has version %q, want %q: recreate it with --create-baseline", path, b.Version, Version)
	}

	b.index = make(map[string]map[string]bool, len(b.Documents))
	for file, entries := range b.Documents {
		for _, e := range entries {
			b.add(file, e)
		}
	}
	return &b, nil
}

// SaveBaseline writes the baseline, stamping its creation time.
func (b *Baseline) SaveBaseline(path string) error {
	if b.CreatedAt == "" {
		b.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline file: %w", err)
	}
	return nil
}

// IsKnown reports whether the issue's document already has it on the same
// node.
func (b *Baseline) IsKnown(issue types.Issue) bool {
	if b == nil {
		return false
	}
	return b.index[issue.File][entryFor(issue).key()]
}

// Filter splits issues into those not covered by the baseline and a count
// of the suppressed ones. A nil baseline suppresses nothing.
func (b *Baseline) Filter(issues []types.Issue) ([]types.Issue, int) {
	if b == nil {
		return issues, 0
	}
	kept := make([]types.Issue, 0, len(issues))
	ignored := 0
	for _, issue := range issues {
		if b.IsKnown(issue) {
			ignored++
			continue
		}
		kept = append(kept, issue)
	}
	return kept, ignored
}

var (
	quotedValue = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	// counts and scores, but not the digits inside ids such as C12 or T3
	bareNumber = regexp.MustCompile(`(^|[\s(,:=])-?\d+(\.\d+)?\b`)
)

// maskMessage hides values that change between runs of the same problem:
// quoted values become "*" and bare numbers N.
func maskMessage(msg string) string {
	msg = quotedValue.ReplaceAllString(msg, `"*"`)
	msg = bareNumber.ReplaceAllString(msg, `${1}N`)
	return strings.Join(strings.Fields(msg), " ")
}
