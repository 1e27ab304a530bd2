// Package in defines inbound ports driven by the HTTP layer.
package in

import (
	"context"

	"github.com/ioa2205/email-support-agent/core/domain"
)

// ConnectService is the account connection flow consumed by the
// management API.
type ConnectService interface {
	// BeginConnect issues a CSRF state and returns the consent page URL.
	BeginConnect() string

	// CompleteConnect finishes the callback leg and returns the mailbox
	// address that was connected.
	CompleteConnect(ctx context.Context, state, code string) (string, error)

	// ListAccounts returns all connected accounts.
	ListAccounts(ctx context.Context) ([]*domain.Account, error)

	// Disconnect removes a connected account.
	Disconnect(ctx context.Context, userEmail string) error
}
