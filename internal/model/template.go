package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InstantiateOptions carries the metadata bound to a new assessment.
type InstantiateOptions struct {
	Name         string
	Organisation *Organisation
	Subject      *Subject
	Now          func() time.Time
}

// Instantiate creates a fresh assessment from a template. Every test result
// and every derived field starts out null.
func Instantiate(t *Template, opts InstantiateOptions) (*Assessment, error) {
	if t == nil {
		return nil, fmt.Errorf("instantiate: nil template")
	}
	if len(t.Principles) == 0 {
		return nil, fmt.Errorf("instantiate: template %s has no principles", t.ID)
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	a := &Assessment{
		ID:         uuid.NewString(),
		TemplateID: t.ID,
		Name:       opts.Name,
		Timestamp:  now().UTC().Format(time.RFC3339),
		Principles: clonePrinciples(t.Principles),
	}
	if t.Actor != nil {
		actor := *t.Actor
		a.Actor = &actor
	}
	if opts.Organisation != nil {
		org := *opts.Organisation
		a.Organisation = &org
	}
	if opts.Subject != nil {
		subject := *opts.Subject
		a.Subject = &subject
	}

	a.ResetAnswers()
	return a, nil
}

// ResetAnswers clears every test result and every derived field.
func (a *Assessment) ResetAnswers() {
	a.Result = nil
	for _, c := range a.Criteria() {
		if c.Metric != nil {
			c.Metric.reset()
		}
		for i := range c.Metrics {
			c.Metrics[i].reset()
		}
	}
}

func (m *Metric) reset() {
	m.Value = nil
	m.Result = nil
	for i := range m.Tests {
		m.Tests[i].Reset()
	}
}
