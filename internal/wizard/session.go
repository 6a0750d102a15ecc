package wizard

import (
	"context"

	"github.com/dotcommander/assesskit/internal/model"
)

// Session is the acting user. It is passed explicitly to Submit; the
// profile is the only source of the submitter fields on a document.
type Session struct {
	Token   string `validate:"required"`
	Profile model.Profile
}

// Submitter persists an assessment. Implementations apply last-write-wins
// and may return the stored document, for example with an assigned id.
// A nil document with a nil error means the input was stored unchanged.
type Submitter interface {
	Submit(ctx context.Context, session Session, a *model.Assessment) (*model.Assessment, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, session Session, a *model.Assessment) (*model.Assessment, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, session Session, a *model.Assessment) (*model.Assessment, error) {
	return f(ctx, session, a)
}

// TemplateSource resolves the template for an actor in create mode.
type TemplateSource func(actorID string) (*model.Template, error)
