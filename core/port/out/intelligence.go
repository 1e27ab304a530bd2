package out

import (
	"context"

	"github.com/ioa2205/email-support-agent/core/domain"
)

// Classifier maps a cleaned message body to one of the fixed categories.
type Classifier interface {
	Classify(ctx context.Context, body string) (domain.Category, error)
}

// Answer is a retrieved knowledge-base answer with its confidence score.
type Answer struct {
	Text  string
	Score float64
}

// KnowledgeRetriever answers customer questions from the knowledge base.
// A nil Answer with a nil error means "no confident answer".
type KnowledgeRetriever interface {
	Answer(ctx context.Context, question string) (*Answer, error)
}
