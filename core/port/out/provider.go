// Package out defines outbound ports to external collaborators.
package out

import (
	"context"

	"github.com/ioa2205/email-support-agent/core/domain"

	"golang.org/x/oauth2"
)

// MessageRef identifies a provider-side message without its payload.
type MessageRef struct {
	ID       string
	ThreadID string
}

// ReplyRequest describes an outgoing threaded reply.
type ReplyRequest struct {
	To       string
	Subject  string
	Body     string
	ThreadID string
}

// Mailbox is the per-account mail provider surface the dispatch loop
// consumes: list unread, fetch detail, reply, acknowledge.
type Mailbox interface {
	// ListUnread returns references to all unread messages. Order is
	// provider-defined.
	ListUnread(ctx context.Context) ([]MessageRef, error)

	// GetMessage fetches the full message, including the extracted
	// plain-text body.
	GetMessage(ctx context.Context, messageID string) (*domain.Message, error)

	// SendReply sends a reply threaded into the original conversation.
	SendReply(ctx context.Context, req *ReplyRequest) error

	// MarkRead removes the provider-side unread flag. Idempotent on the
	// provider side.
	MarkRead(ctx context.Context, messageID string) error
}

// MailProvider opens authenticated mailboxes and refreshes credentials.
type MailProvider interface {
	// Open builds a Mailbox bound to the given token.
	Open(ctx context.Context, token *oauth2.Token) (Mailbox, error)

	// RefreshToken exchanges an expired token for a fresh one via the
	// provider's token endpoint.
	RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// OAuthProvider is the authorization-code flow surface used when a
// mailbox owner connects their account.
type OAuthProvider interface {
	// AuthURL returns the consent page URL for the given CSRF state.
	AuthURL(state string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUserEmail resolves the mailbox address the token grants
	// access to.
	FetchUserEmail(ctx context.Context, token *oauth2.Token) (string, error)
}
