// Package rag implements knowledge-base retrieval for the question
// workflow: FAQ documents embedded once at startup, cosine-similarity
// search, and an extractive question-answering step with a confidence
// threshold.
package rag

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Document is one question/answer pair from the FAQ file.
type Document struct {
	Question string
	Answer   string
}

// Go's regexp has no lookahead, so the "split before Q:" boundary is
// matched including the "Q:" marker and the marker is handed back to
// the following piece in splitQAPairs.
var qaPairSplitRe = regexp.MustCompile(`\n(?:\n)*Q:`)

// splitQAPairs splits text at blank-line boundaries that precede a
// "Q:" marker, keeping the marker at the start of each piece.
func splitQAPairs(text string) []string {
	var pieces []string
	prev := 0
	for _, loc := range qaPairSplitRe.FindAllStringIndex(text, -1) {
		pieces = append(pieces, text[prev:loc[0]])
		prev = loc[1] - len("Q:")
	}
	return append(pieces, text[prev:])
}

// ParseFAQ splits FAQ text into question/answer documents. The expected
// shape is repeated blocks of "Q: ...\nA: ...". Malformed blocks are
// skipped.
func ParseFAQ(text string) []Document {
	var docs []Document
	for _, pair := range splitQAPairs(strings.TrimSpace(text)) {
		pair = strings.TrimSpace(pair)
		if !strings.HasPrefix(pair, "Q:") {
			continue
		}
		parts := strings.SplitN(pair, "\nA:", 2)
		if len(parts) != 2 {
			continue
		}
		question := strings.TrimSpace(strings.TrimPrefix(parts[0], "Q:"))
		answer := strings.TrimSpace(parts[1])
		if question == "" || answer == "" {
			continue
		}
		docs = append(docs, Document{Question: question, Answer: answer})
	}
	return docs
}

// LoadFAQ reads and parses the FAQ file backing the knowledge base.
func LoadFAQ(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}
	docs := ParseFAQ(string(data))
	if len(docs) == 0 {
		return nil, fmt.Errorf("knowledge base %s contains no Q/A pairs", path)
	}
	return docs, nil
}
