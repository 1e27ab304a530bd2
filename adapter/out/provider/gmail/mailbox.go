// Package gmail provides the Gmail API mailbox adapter.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
)

// Mailbox implements out.Mailbox over the Gmail API for one account.
type Mailbox struct {
	service *gmail.Service
	email   string
}

// NewMailbox creates a mailbox bound to the given token.
func NewMailbox(ctx context.Context, token *oauth2.Token, config *oauth2.Config) (*Mailbox, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return &Mailbox{
		service: service,
		email:   profile.EmailAddress,
	}, nil
}

// Email returns the mailbox address.
func (m *Mailbox) Email() string {
	return m.email
}

// ListUnread returns references to all unread messages.
func (m *Mailbox) ListUnread(ctx context.Context) ([]out.MessageRef, error) {
	var refs []out.MessageRef
	pageToken := ""

	for {
		req := m.service.Users.Messages.List("me").Q("is:unread")
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		resp, err := req.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list unread messages: %w", err)
		}

		for _, msg := range resp.Messages {
			refs = append(refs, out.MessageRef{ID: msg.Id, ThreadID: msg.ThreadId})
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return refs, nil
}

// GetMessage fetches the full message with its plain-text body extracted.
func (m *Mailbox) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, err := m.service.Users.Messages.Get("me", messageID).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return parseMessage(msg), nil
}

// SendReply sends a reply threaded into the original conversation.
func (m *Mailbox) SendReply(ctx context.Context, req *out.ReplyRequest) error {
	raw := buildRawReply(req)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if req.ThreadID != "" {
		msg.ThreadId = req.ThreadID
	}

	if _, err := m.service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// MarkRead removes the UNREAD label.
func (m *Mailbox) MarkRead(ctx context.Context, messageID string) error {
	_, err := m.service.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	return err
}

// Helper functions

func parseMessage(msg *gmail.Message) *domain.Message {
	dm := &domain.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
	}

	if msg.Payload != nil {
		// Header names arrive in whatever casing the sender used.
		for _, header := range msg.Payload.Headers {
			switch {
			case strings.EqualFold(header.Name, "From"):
				dm.From = header.Value
			case strings.EqualFold(header.Name, "To"):
				dm.To = header.Value
			case strings.EqualFold(header.Name, "Subject"):
				dm.Subject = header.Value
			case strings.EqualFold(header.Name, "In-Reply-To"):
				dm.InReplyTo = header.Value
			}
		}

		text, html := parseBody(msg.Payload)
		if text != "" {
			dm.Body = text
		} else {
			dm.Body = html
		}
	}

	return dm
}

// parseBody walks the MIME tree and returns the first text/plain and
// text/html parts found. Callers prefer plain text.
func parseBody(payload *gmail.MessagePart) (text, html string) {
	if payload == nil {
		return "", ""
	}

	if payload.Body != nil && payload.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(payload.Body.Data)
		if err == nil {
			switch payload.MimeType {
			case "text/plain":
				text = string(data)
			case "text/html":
				html = string(data)
			}
		}
	}

	for _, part := range payload.Parts {
		t, h := parseBody(part)
		if text == "" && t != "" {
			text = t
		}
		if html == "" && h != "" {
			html = h
		}
	}

	return text, html
}

func buildRawReply(req *out.ReplyRequest) string {
	var sb strings.Builder

	sb.WriteString("To: " + req.To + "\r\n")
	sb.WriteString("Subject: " + req.Subject + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(req.Body)

	return sb.String()
}

var _ out.Mailbox = (*Mailbox)(nil)
