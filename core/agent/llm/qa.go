package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

type qaResponse struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

const qaSystemPrompt = `You are an extractive question-answering model for a customer support knowledge base. Answer the question using ONLY the provided context. Respond with JSON only.

If the context does not contain the answer, return an empty answer with confidence 0.

Respond with this exact JSON format:
{"answer": "<answer text or empty>", "confidence": 0.0-1.0}`

// AnswerQuestion answers a question from the given context and reports the
// model's confidence on a 0-1 scale.
func (c *Client) AnswerQuestion(ctx context.Context, question, contextText string) (string, float64, error) {
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s", contextText, truncateBody(question, 1000))

	resp, err := c.CompleteWithSystem(ctx, qaSystemPrompt, userPrompt)
	if err != nil {
		return "", 0, fmt.Errorf("question answering request failed: %w", err)
	}

	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var result qaResponse
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return "", 0, fmt.Errorf("failed to parse question answering response: %w", err)
	}

	return result.Answer, result.Confidence, nil
}
