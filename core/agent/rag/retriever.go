package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/ioa2205/email-support-agent/core/port/out"
)

// QAModel answers a question from retrieved context with a confidence
// score on a 0-1 scale.
type QAModel interface {
	AnswerQuestion(ctx context.Context, question, contextText string) (string, float64, error)
}

// MinConfidence is the default cutoff: answers scored at or below it are
// treated as "no answer" rather than risk replying with wrong information.
const MinConfidence = 0.3

const defaultSearchLimit = 4

// Retriever implements out.KnowledgeRetriever over the FAQ index.
type Retriever struct {
	index         *Index
	qa            QAModel
	minConfidence float64
	searchLimit   int
}

func NewRetriever(index *Index, qa QAModel, minConfidence float64) *Retriever {
	if minConfidence <= 0 {
		minConfidence = MinConfidence
	}
	return &Retriever{
		index:         index,
		qa:            qa,
		minConfidence: minConfidence,
		searchLimit:   defaultSearchLimit,
	}
}

// Answer retrieves supporting context and generates an answer. It returns
// (nil, nil) when no context is found or the answer's confidence is at or
// below the threshold.
func (r *Retriever) Answer(ctx context.Context, question string) (*out.Answer, error) {
	hits, err := r.index.Search(ctx, question, r.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	contexts := make([]string, len(hits))
	for i, hit := range hits {
		contexts[i] = hit.Document.Answer
	}

	answer, score, err := r.qa.AnswerQuestion(ctx, question, strings.Join(contexts, " "))
	if err != nil {
		return nil, fmt.Errorf("question answering failed: %w", err)
	}

	if answer == "" || score <= r.minConfidence {
		return nil, nil
	}

	return &out.Answer{Text: answer, Score: score}, nil
}

var _ out.KnowledgeRetriever = (*Retriever)(nil)
