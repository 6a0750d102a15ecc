// Package wizard drives the step-by-step editing of an assessment: pick an
// actor, fill in general information and the subject, then answer one
// criterion per tab, and finally submit. Every answer re-runs the scoring
// engine for the affected metric so tab badges are always current.
package wizard

import "fmt"

// StepKind tags a wizard step.
type StepKind int

const (
	StepActor StepKind = iota
	StepGeneral
	StepCriterion
)

// Step is a position in the wizard. Index is only meaningful for criterion
// tabs and counts criteria across principles in document order.
type Step struct {
	Kind  StepKind
	Index int
}

// ActorStep is the first step.
func ActorStep() Step { return Step{Kind: StepActor} }

// GeneralStep holds the name and subject.
func GeneralStep() Step { return Step{Kind: StepGeneral} }

// CriterionStep is the tab for the n-th criterion.
func CriterionStep(n int) Step { return Step{Kind: StepCriterion, Index: n} }

func (s Step) String() string {
	switch s.Kind {
	case StepActor:
		return "actor"
	case StepGeneral:
		return "general"
	case StepCriterion:
		return fmt.Sprintf("criterion[%d]", s.Index)
	default:
		return "unknown"
	}
}

// State is the lifecycle of a controller.
type State int

const (
	Editing State = iota
	Saved
	Discarded
)

func (s State) String() string {
	switch s {
	case Saved:
		return "saved"
	case Discarded:
		return "discarded"
	default:
		return "editing"
	}
}

// Terminal reports whether no further edits are accepted.
func (s State) Terminal() bool {
	return s == Saved || s == Discarded
}

// Mode distinguishes creating a new assessment from editing a stored one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}
