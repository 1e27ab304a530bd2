package rag

import (
	"context"
	"errors"
	"testing"
)

type fakeQA struct {
	answer      string
	score       float64
	err         error
	gotQuestion string
	gotContext  string
}

func (f *fakeQA) AnswerQuestion(ctx context.Context, question, contextText string) (string, float64, error) {
	f.gotQuestion = question
	f.gotContext = contextText
	return f.answer, f.score, f.err
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	docs := []Document{
		{Question: "returns", Answer: "Returns are accepted within 30 days."},
	}
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"returns\nReturns are accepted within 30 days.": {1, 0, 0},
	}}
	index, err := BuildIndex(context.Background(), embedder, docs)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v", err)
	}
	return index
}

func TestRetrieverConfidentAnswer(t *testing.T) {
	qa := &fakeQA{answer: "Within 30 days.", score: 0.92}
	r := NewRetriever(newTestIndex(t), qa, 0.3)

	answer, err := r.Answer(context.Background(), "can I return my order?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer == nil {
		t.Fatal("expected an answer")
	}
	if answer.Text != "Within 30 days." {
		t.Errorf("answer text = %q, want %q", answer.Text, "Within 30 days.")
	}
	if answer.Score != 0.92 {
		t.Errorf("answer score = %f, want 0.92", answer.Score)
	}
	if qa.gotContext != "Returns are accepted within 30 days." {
		t.Errorf("qa context = %q", qa.gotContext)
	}
}

func TestRetrieverLowConfidence(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		score  float64
	}{
		{name: "below threshold", answer: "maybe", score: 0.1},
		{name: "exactly at threshold", answer: "maybe", score: 0.3},
		{name: "empty answer", answer: "", score: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qa := &fakeQA{answer: tt.answer, score: tt.score}
			r := NewRetriever(newTestIndex(t), qa, 0.3)

			answer, err := r.Answer(context.Background(), "can I return my order?")
			if err != nil {
				t.Fatalf("Answer() error = %v", err)
			}
			if answer != nil {
				t.Errorf("expected no answer, got %+v", answer)
			}
		})
	}
}

func TestRetrieverQAError(t *testing.T) {
	qa := &fakeQA{err: errors.New("model unavailable")}
	r := NewRetriever(newTestIndex(t), qa, 0.3)

	if _, err := r.Answer(context.Background(), "question"); err == nil {
		t.Fatal("expected error when question answering fails")
	}
}

func TestNewRetrieverDefaultThreshold(t *testing.T) {
	r := NewRetriever(nil, nil, 0)
	if r.minConfidence != MinConfidence {
		t.Errorf("minConfidence = %f, want %f", r.minConfidence, MinConfidence)
	}
}
