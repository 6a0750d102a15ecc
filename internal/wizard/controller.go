package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"github.com/dotcommander/assesskit/internal/model"
	"github.com/dotcommander/assesskit/internal/scoring"
)

// TabStatus is the live badge of one criterion tab.
type TabStatus struct {
	Step        Step
	PrincipleID string
	CriterionID string
	Name        string
	Bucket      scoring.Bucket
	Status      scoring.Verdict
	Filled      int
	Total       int
	Automated   int
}

// Progress renders the filled/total indicator.
func (t TabStatus) Progress() string {
	return fmt.Sprintf("%d/%d", t.Filled, t.Total)
}

// Controller is the wizard state machine. It is meant to be driven from a
// single goroutine; only Submit guards against being entered twice.
type Controller struct {
	mode      Mode
	state     State
	step      Step
	actors    []model.Actor
	templates TemplateSource
	submitter Submitter
	validate  *validator.Validate
	logger    *slog.Logger

	original *model.Assessment
	working  *model.Assessment

	actorChosen  bool
	subjectBound bool // picked from an existing subject, or bound on an edited document
	inFlight     atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithTemplates loads a fresh template whenever an actor is selected in
// create mode.
func WithTemplates(src TemplateSource) Option {
	return func(c *Controller) { c.templates = src }
}

// WithLogger sets the logger used for submit outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New starts a create-mode wizard on a freshly instantiated assessment.
// a may be nil when a template source is configured; the tree is then
// loaded on actor selection.
func New(a *model.Assessment, actors []model.Actor, submitter Submitter, opts ...Option) *Controller {
	if a == nil {
		a = &model.Assessment{}
	}
	c := newController(ModeCreate, a, actors, submitter, opts...)
	if a.Actor != nil && c.knownActor(a.Actor.ID) {
		c.actorChosen = true
	}
	return c
}

// Edit re-enters the wizard seeded from a stored assessment. Its actor is
// fixed and a bound subject does not have to be entered again.
func Edit(a *model.Assessment, actors []model.Actor, submitter Submitter, opts ...Option) *Controller {
	if a == nil {
		a = &model.Assessment{}
	}
	c := newController(ModeEdit, a, actors, submitter, opts...)
	c.actorChosen = a.Actor != nil && a.Actor.ID != ""
	c.subjectBound = a.Subject != nil && a.Subject.ID != ""
	return c
}

func newController(mode Mode, a *model.Assessment, actors []model.Actor, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		mode:      mode,
		step:      ActorStep(),
		actors:    actors,
		submitter: submitter,
		validate:  newValidator(),
		logger:    slog.New(slog.DiscardHandler),
		original:  a.Clone(),
		working:   a.Clone(),
	}
	for _, opt := range opts {
		opt(c)
	}
	scoring.ApplyAssessment(c.working)
	return c
}

// Mode returns create or edit.
func (c *Controller) Mode() Mode { return c.mode }

// State returns the lifecycle state.
func (c *Controller) State() State { return c.state }

// Step returns the current step.
func (c *Controller) Step() Step { return c.step }

// Assessment returns a copy of the working tree.
func (c *Controller) Assessment() *model.Assessment { return c.working.Clone() }

// SelectActor chooses the actor. In create mode with a template source the
// tree is replaced wholesale by the actor's template.
func (c *Controller) SelectActor(id string) error {
	if err := c.editable(); err != nil {
		return err
	}
	if !c.knownActor(id) {
		return fmt.Errorf("%w: %s", ErrUnknownActor, id)
	}
	if c.mode == ModeEdit && c.working.Actor != nil && c.working.Actor.ID != "" {
		if c.working.Actor.ID != id {
			return fmt.Errorf("%w: actor of an existing assessment", ErrReadOnly)
		}
		c.actorChosen = true
		return nil
	}

	if c.mode == ModeCreate && c.templates != nil && (c.working.Actor == nil || c.working.Actor.ID != id) {
		tpl, err := c.templates(id)
		if err != nil {
			return fmt.Errorf("loading template for actor %s: %w", id, err)
		}
		fresh, err := model.Instantiate(tpl, model.InstantiateOptions{
			Name:         c.working.Name,
			Organisation: c.working.Organisation,
			Subject:      c.working.Subject,
		})
		if err != nil {
			return err
		}
		c.working = fresh
		scoring.ApplyAssessment(c.working)
	}

	actor := c.actor(id)
	c.working.Actor = &actor
	c.actorChosen = true
	return nil
}

// CanContinue reports whether Next would leave the current step.
func (c *Controller) CanContinue() bool {
	if c.state.Terminal() {
		return false
	}
	switch c.step.Kind {
	case StepActor:
		return c.actorChosen
	case StepGeneral:
		return c.generalErr() == nil && c.criterionCount() > 0
	default:
		return c.step.Index+1 < c.criterionCount()
	}
}

// Next advances one step. Without the step's requirements it is a no-op and
// reports ErrStepIncomplete.
func (c *Controller) Next() error {
	if err := c.editable(); err != nil {
		return err
	}
	switch c.step.Kind {
	case StepActor:
		if !c.actorChosen {
			return fmt.Errorf("%w: choose an actor", ErrStepIncomplete)
		}
		c.step = GeneralStep()
	case StepGeneral:
		if err := c.generalErr(); err != nil {
			return err
		}
		if c.criterionCount() == 0 {
			return fmt.Errorf("%w: assessment has no criteria", ErrStepIncomplete)
		}
		c.step = CriterionStep(0)
	default:
		if c.step.Index+1 >= c.criterionCount() {
			return fmt.Errorf("%w: last criterion", ErrStepIncomplete)
		}
		c.step = CriterionStep(c.step.Index + 1)
	}
	return nil
}

// Back moves one step towards the actor step.
func (c *Controller) Back() error {
	if err := c.editable(); err != nil {
		return err
	}
	switch {
	case c.step.Kind == StepCriterion && c.step.Index > 0:
		c.step = CriterionStep(c.step.Index - 1)
	case c.step.Kind == StepCriterion:
		c.step = GeneralStep()
	default:
		c.step = ActorStep()
	}
	return nil
}

// GoTo jumps to a step. Criterion tabs are reachable once the actor and
// general steps hold; moving between tabs is never gated on answers.
func (c *Controller) GoTo(s Step) error {
	if err := c.editable(); err != nil {
		return err
	}
	switch s.Kind {
	case StepActor:
	case StepGeneral:
		if !c.actorChosen {
			return fmt.Errorf("%w: choose an actor", ErrStepIncomplete)
		}
	case StepCriterion:
		if s.Index < 0 || s.Index >= c.criterionCount() {
			return fmt.Errorf("%w: tab %d", ErrUnknownCriterion, s.Index)
		}
		if err := c.ready(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown step %v", s)
	}
	c.step = s
	return nil
}

// SetName sets the assessment name.
func (c *Controller) SetName(name string) error {
	if err := c.editable(); err != nil {
		return err
	}
	c.working.Name = strings.TrimSpace(name)
	return nil
}

// SetOrganisation sets the owning organisation.
func (c *Controller) SetOrganisation(org model.Organisation) error {
	if err := c.editable(); err != nil {
		return err
	}
	c.working.Organisation = &org
	return nil
}

// SetPublished flips the publication flag.
func (c *Controller) SetPublished(published bool) error {
	if err := c.editable(); err != nil {
		return err
	}
	c.working.Published = published
	return nil
}

// PickSubject binds an existing subject; its fields become read-only.
func (c *Controller) PickSubject(s model.Subject) error {
	if err := c.subjectEditable(); err != nil {
		return err
	}
	if s.ID == "" {
		return fmt.Errorf("%w: subject id", ErrStepIncomplete)
	}
	c.working.Subject = &s
	c.subjectBound = true
	return nil
}

// SetManualSubject enters the subject by hand, replacing any picked one.
// All three fields are checked when leaving the general step.
func (c *Controller) SetManualSubject(id, name, typ string) error {
	if err := c.subjectEditable(); err != nil {
		return err
	}
	c.working.Subject = &model.Subject{
		ID:   strings.TrimSpace(id),
		Name: strings.TrimSpace(name),
		Type: strings.TrimSpace(typ),
	}
	c.subjectBound = false
	return nil
}

// subjectEditable rejects subject changes once an edit-mode assessment has a
// bound subject. In create mode a picked subject may still be replaced.
func (c *Controller) subjectEditable() error {
	if err := c.editable(); err != nil {
		return err
	}
	if c.mode == ModeEdit && c.subjectBound {
		return fmt.Errorf("%w: subject of an existing assessment", ErrReadOnly)
	}
	return nil
}

// SubjectReadOnly reports whether the subject fields are locked.
func (c *Controller) SubjectReadOnly() bool {
	return c.subjectBound
}

// AnswerBinary answers a yes/no test.
func (c *Controller) AnswerBinary(criterionID, testID string, yes bool) (TabStatus, error) {
	return c.answer(criterionID, testID, func(t *model.Test) error {
		if !t.IsBinary() {
			return fmt.Errorf("%w: test %s is not binary", model.ErrInvalidAnswer, t.ID)
		}
		t.SetBinary(yes)
		return nil
	})
}

// AnswerValue stores a numeric answer.
func (c *Controller) AnswerValue(criterionID, testID string, v float64) (TabStatus, error) {
	return c.answer(criterionID, testID, func(t *model.Test) error {
		return t.SetResult(v)
	})
}

// AnswerValues combines a control and a community measurement.
func (c *Controller) AnswerValues(criterionID, testID string, control, community float64) (TabStatus, error) {
	return c.answer(criterionID, testID, func(t *model.Test) error {
		return t.SetValues(control, community)
	})
}

// ResetAnswer clears a test's answer.
func (c *Controller) ResetAnswer(criterionID, testID string) (TabStatus, error) {
	return c.answer(criterionID, testID, func(t *model.Test) error {
		t.Reset()
		return nil
	})
}

func (c *Controller) answer(criterionID, testID string, set func(*model.Test) error) (TabStatus, error) {
	if err := c.editable(); err != nil {
		return TabStatus{}, err
	}
	n, crit, ok := c.findCriterion(criterionID)
	if !ok {
		return TabStatus{}, fmt.Errorf("%w: %s", ErrUnknownCriterion, criterionID)
	}
	m, count := crit.TheMetric()
	if count != 1 {
		return TabStatus{}, &scoring.IntegrityError{
			Path:   "criterion " + criterionID,
			Reason: fmt.Sprintf("expected exactly one metric, found %d", count),
		}
	}
	t, ok := m.Test(testID)
	if !ok {
		return TabStatus{}, fmt.Errorf("%w: %s in criterion %s", ErrUnknownTest, testID, criterionID)
	}
	if err := set(t); err != nil {
		return TabStatus{}, err
	}
	scoring.ApplyMetric(m)
	return c.Tab(n)
}

// Tab returns the badge of the n-th criterion tab.
func (c *Controller) Tab(n int) (TabStatus, error) {
	tabs := c.Tabs()
	if n < 0 || n >= len(tabs) {
		return TabStatus{}, fmt.Errorf("%w: tab %d", ErrUnknownCriterion, n)
	}
	return tabs[n], nil
}

// Tabs returns every criterion tab in order. Malformed criteria still get a
// tab, shown as UNKNOWN with no tests.
func (c *Controller) Tabs() []TabStatus {
	var tabs []TabStatus
	for _, p := range c.working.Principles {
		for _, crit := range p.Criteria {
			tab := TabStatus{
				Step:        CriterionStep(len(tabs)),
				PrincipleID: p.ID,
				CriterionID: crit.ID,
				Name:        crit.Name,
				Bucket:      scoring.BucketFor(crit.Imperative),
			}
			if cls, err := scoring.ClassifyCriterion(crit); err == nil {
				tab.Status = cls.Status
				m, _ := crit.TheMetric()
				tab.Filled, tab.Total = scoring.Progress(*m)
				for _, t := range m.Tests {
					if t.IsAutomated() {
						tab.Automated++
					}
				}
			}
			tabs = append(tabs, tab)
		}
	}
	return tabs
}

// Stats evaluates the whole working tree.
func (c *Controller) Stats() scoring.ResultStats {
	return scoring.EvaluateAssessment(c.working)
}

// CanSubmit reports whether the actor and general steps hold. Unanswered
// tests never block a submit.
func (c *Controller) CanSubmit() bool {
	return !c.state.Terminal() && c.ready() == nil
}

// Submit hands a copy of the working tree, with derived fields refreshed and
// the submitter taken from the session, to the persistence collaborator.
// On failure the wizard stays where it is and returns a *SubmitError.
func (c *Controller) Submit(ctx context.Context, session Session) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer c.inFlight.Store(false)

	if err := c.editable(); err != nil {
		return err
	}
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.validate.Struct(session); err != nil {
		return ErrUnauthenticated
	}

	doc := c.working.Clone()
	profile := session.Profile
	doc.Submitter = &profile
	stats := scoring.ApplyAssessment(doc)

	saved, err := c.submitter.Submit(ctx, session, doc)
	if err != nil {
		c.logger.Warn("submit failed", "assessment", doc.ID, "error", err)
		return &SubmitError{Err: err}
	}
	if saved == nil {
		saved = doc
	}

	c.logger.Info("assessment saved",
		"assessment", saved.ID,
		"ranking", stats.Ranking,
		"compliance", stats.Compliance.String(),
		"warnings", len(stats.Warnings))

	c.original = saved.Clone()
	c.working = saved.Clone()
	c.state = Saved
	return nil
}

// Discard drops every change since the last load or save.
func (c *Controller) Discard() error {
	if c.state.Terminal() {
		return ErrTerminal
	}
	c.working = c.original.Clone()
	c.state = Discarded
	return nil
}

// ready checks the actor and general steps.
func (c *Controller) ready() error {
	if !c.actorChosen {
		return fmt.Errorf("%w: choose an actor", ErrStepIncomplete)
	}
	return c.generalErr()
}

func (c *Controller) generalErr() error {
	if err := c.validate.Struct(generalInfo{Name: c.working.Name}); err != nil {
		return describe(err)
	}
	if c.subjectBound {
		return nil
	}
	s := manualSubject{}
	if c.working.Subject != nil {
		s = manualSubject{ID: c.working.Subject.ID, Name: c.working.Subject.Name, Type: c.working.Subject.Type}
	}
	if err := c.validate.Struct(s); err != nil {
		return describe(err)
	}
	return nil
}

func (c *Controller) editable() error {
	if c.state.Terminal() {
		return fmt.Errorf("%w (%s)", ErrTerminal, c.state)
	}
	return nil
}

func (c *Controller) criterionCount() int {
	n := 0
	for _, p := range c.working.Principles {
		n += len(p.Criteria)
	}
	return n
}

func (c *Controller) findCriterion(id string) (int, *model.Criterion, bool) {
	for n, crit := range c.working.Criteria() {
		if crit.ID == id {
			return n, crit, true
		}
	}
	return 0, nil, false
}

func (c *Controller) knownActor(id string) bool {
	for _, a := range c.actors {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) actor(id string) model.Actor {
	for _, a := range c.actors {
		if a.ID == id {
			return a
		}
	}
	return model.Actor{ID: id}
}
