package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embedding(ctx context.Context, text string) ([]float32, error)
	EmbeddingBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is an in-memory vector index over the FAQ documents. The knowledge
// base is small and static, so everything is embedded once and searched
// linearly.
type Index struct {
	embedder Embedder
	docs     []Document
	vectors  [][]float32
}

// BuildIndex embeds every document and returns a searchable index.
func BuildIndex(ctx context.Context, embedder Embedder, docs []Document) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("cannot build index over empty knowledge base")
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Question + "\n" + doc.Answer
	}

	vectors, err := embedder.EmbeddingBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed knowledge base: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedding count mismatch: %d vectors for %d documents", len(vectors), len(docs))
	}

	return &Index{
		embedder: embedder,
		docs:     docs,
		vectors:  vectors,
	}, nil
}

// ScoredDocument is a search hit with its similarity score.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// Search returns the top documents by cosine similarity to the query.
func (ix *Index) Search(ctx context.Context, query string, limit int) ([]ScoredDocument, error) {
	if limit <= 0 {
		limit = 4
	}

	queryVec, err := ix.embedder.Embedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results := make([]ScoredDocument, 0, len(ix.docs))
	for i, vec := range ix.vectors {
		results = append(results, ScoredDocument{
			Document: ix.docs[i],
			Score:    cosineSimilarity(queryVec, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
