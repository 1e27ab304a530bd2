package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ioa2205/email-support-agent/core/domain"
)

// classifyResponse is the JSON shape the model is asked to produce.
type classifyResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

const classifySystemPrompt = `You are a zero-shot email classifier for a customer support inbox. Pick the single best matching label for the email and respond with JSON only.

Labels:
- "Question": the customer asks something answerable from product documentation
- "Refund Request": the customer wants money back for an order
- "Other": anything else (feedback, complaints, spam, unrelated mail)

Respond with this exact JSON format:
{"label": "<one of the labels>", "score": 0.0-1.0}`

// Classify maps a cleaned email body to one of the fixed support
// categories.
func (c *Client) Classify(ctx context.Context, body string) (domain.Category, error) {
	resp, err := c.CompleteWithSystem(ctx, classifySystemPrompt, truncateBody(body, 2000))
	if err != nil {
		return "", fmt.Errorf("classification request failed: %w", err)
	}

	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimSuffix(resp, "```")
	resp = strings.TrimSpace(resp)

	var result classifyResponse
	if err := json.Unmarshal([]byte(resp), &result); err != nil {
		return "", fmt.Errorf("failed to parse classification response: %w", err)
	}

	return mapLabel(result.Label), nil
}

// mapLabel folds whatever the model called its top label into the fixed
// category set. Exhaustive and mutually exclusive: refund wins over
// question, everything unrecognized is Other.
func mapLabel(label string) domain.Category {
	switch {
	case strings.Contains(label, "Refund"):
		return domain.CategoryRefund
	case strings.Contains(label, "Question"):
		return domain.CategoryQuestion
	default:
		return domain.CategoryOther
	}
}
