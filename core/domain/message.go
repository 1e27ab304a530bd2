package domain

// Message is one mail message fetched from the provider. It is transient:
// it lives for a single processing pass and is never persisted.
type Message struct {
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	InReplyTo string `json:"in_reply_to,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// IsReply reports whether this message references a prior message of ours.
func (m *Message) IsReply() bool {
	return m.InReplyTo != ""
}

// Category is the fixed label set the classifier maps a message into.
type Category string

const (
	CategoryQuestion Category = "Question"
	CategoryRefund   Category = "Refund"
	CategoryOther    Category = "Other"
)
