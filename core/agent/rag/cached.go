package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ioa2205/email-support-agent/core/port/out"
	"github.com/ioa2205/email-support-agent/pkg/cache"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

const answerCacheKeyPrefix = "answer:"

type cachedAnswer struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Found bool    `json:"found"`
}

// CachedRetriever wraps a KnowledgeRetriever with a Redis answer cache.
// Repeated questions skip the embedding and completion calls entirely.
// Negative results ("no confident answer") are cached too.
type CachedRetriever struct {
	inner out.KnowledgeRetriever
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewCachedRetriever creates a caching wrapper around inner.
func NewCachedRetriever(inner out.KnowledgeRetriever, c *cache.RedisCache, ttl time.Duration) *CachedRetriever {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedRetriever{inner: inner, cache: c, ttl: ttl}
}

// Answer returns a cached answer when one exists, otherwise delegates to the
// wrapped retriever and stores the result. Cache failures fall through to the
// retriever so an unreachable Redis never blocks a reply.
func (r *CachedRetriever) Answer(ctx context.Context, question string) (*out.Answer, error) {
	key := answerCacheKey(question)

	var entry cachedAnswer
	hit, err := r.cache.GetJSON(ctx, key, &entry)
	if err != nil {
		logger.Warn("answer cache read failed: %v", err)
	} else if hit {
		if !entry.Found {
			return nil, nil
		}
		return &out.Answer{Text: entry.Text, Score: entry.Score}, nil
	}

	answer, err := r.inner.Answer(ctx, question)
	if err != nil {
		return nil, err
	}

	entry = cachedAnswer{Found: answer != nil}
	if answer != nil {
		entry.Text = answer.Text
		entry.Score = answer.Score
	}
	if err := r.cache.SetJSON(ctx, key, entry, r.ttl); err != nil {
		logger.Warn("answer cache write failed: %v", err)
	}

	return answer, nil
}

func answerCacheKey(question string) string {
	sum := sha256.Sum256([]byte(question))
	return answerCacheKeyPrefix + hex.EncodeToString(sum[:16])
}

var _ out.KnowledgeRetriever = (*CachedRetriever)(nil)
