// Package support implements the three fixed support workflows: answer a
// question from the knowledge base, process a refund request, or triage and
// log everything else.
package support

import (
	"regexp"
	"strings"
)

var (
	markupTagRe     = regexp.MustCompile(`<[^>]+>`)
	quoteBoundaryRe = regexp.MustCompile(`(?s)On.*wrote:`)
	bareAddressRe   = regexp.MustCompile(`<(.+?)>`)

	// "order id" with optional separators, then an alphanumeric token.
	orderIDRe = regexp.MustCompile(`(?i)order id\s*[:\s-]*([A-Za-z0-9]+)`)
	// Fallback for a bare ORD-style token with no "order id" phrase.
	orderIDFallbackRe = regexp.MustCompile(`(?i)\b(ORD\d+)\b`)
)

// CleanBody strips markup tags, quoted-reply boilerplate after an
// "On ... wrote:" boundary, and quoted lines prefixed with ">".
func CleanBody(raw string) string {
	body := markupTagRe.ReplaceAllString(raw, "")
	body = quoteBoundaryRe.ReplaceAllString(body, "")

	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// ExtractAddress returns the bare address from a "Display Name <address>"
// sender field. A sender with no angle brackets is returned as-is.
func ExtractAddress(sender string) string {
	if m := bareAddressRe.FindStringSubmatch(sender); m != nil {
		return m[1]
	}
	return sender
}

// ExtractOrderID finds an order identifier in a cleaned body, normalized to
// uppercase. The second return is false when neither pattern matches.
func ExtractOrderID(body string) (string, bool) {
	if m := orderIDRe.FindStringSubmatch(body); m != nil {
		return strings.ToUpper(m[1]), true
	}
	if m := orderIDFallbackRe.FindStringSubmatch(body); m != nil {
		return strings.ToUpper(m[1]), true
	}
	return "", false
}

// AssessImportance scores a raw body 1..5 with a fixed keyword heuristic.
// Checked in precedence order; first match wins.
func AssessImportance(body string) int {
	lower := strings.ToLower(body)
	switch {
	case containsAny(lower, "urgent", "asap", "complaint"):
		return 5
	case containsAny(lower, "help", "issue"):
		return 4
	case containsAny(lower, "feedback", "suggestion"):
		return 3
	case containsAny(lower, "spam", "subscribe"):
		return 1
	default:
		return 2
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
