// Package worker runs the background mail processing loop.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
)

// MessageProcessor handles one fetched message end to end.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, mbox out.Mailbox, msg *domain.Message) error
}

// Config holds dispatcher timing.
type Config struct {
	PollInterval     time.Duration // delay between cycles
	IdlePollInterval time.Duration // delay when no accounts are connected
}

// DefaultConfig returns the default dispatcher timing.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:     30 * time.Second,
		IdlePollInterval: 60 * time.Second,
	}
}

// Dispatcher polls every connected account for unread mail and feeds each
// message through the processor. One account failing never stops the
// others. Messages stay unread until processed, so a crash mid-cycle means
// redelivery, not loss.
type Dispatcher struct {
	accounts  out.AccountRepository
	provider  out.MailProvider
	processor MessageProcessor
	config    *Config
	log       zerolog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	accounts out.AccountRepository,
	provider out.MailProvider,
	processor MessageProcessor,
	config *Config,
	log zerolog.Logger,
) *Dispatcher {
	if config == nil {
		config = DefaultConfig()
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.IdlePollInterval <= 0 {
		config.IdlePollInterval = 60 * time.Second
	}
	return &Dispatcher{
		accounts:  accounts,
		provider:  provider,
		processor: processor,
		config:    config,
		log:       log,
	}
}

// Run executes poll cycles until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info().
		Dur("poll_interval", d.config.PollInterval).
		Dur("idle_poll_interval", d.config.IdlePollInterval).
		Msg("dispatcher started")

	for {
		_, accounts := d.RunCycle(ctx)

		interval := d.config.PollInterval
		if accounts == 0 {
			interval = d.config.IdlePollInterval
		}

		select {
		case <-ctx.Done():
			d.log.Info().Msg("dispatcher stopped")
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// RunCycle polls every account once and returns the number of messages
// processed and the number of connected accounts.
func (d *Dispatcher) RunCycle(ctx context.Context) (int, int) {
	accounts, err := d.accounts.ListAll(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to list connected accounts")
		return 0, 0
	}
	if len(accounts) == 0 {
		d.log.Debug().Msg("no connected accounts")
		return 0, 0
	}

	processed := 0
	for _, account := range accounts {
		n, err := d.processAccount(ctx, account)
		processed += n
		if err != nil {
			d.log.Error().Err(err).Str("account", account.UserEmail).Msg("account cycle failed")
		}
		if ctx.Err() != nil {
			break
		}
	}
	return processed, len(accounts)
}

func (d *Dispatcher) processAccount(ctx context.Context, account *domain.Account) (int, error) {
	log := d.log.With().Str("account", account.UserEmail).Logger()

	token := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Expiry:       account.TokenExpiry,
	}

	if account.TokenExpired(time.Now()) {
		refreshed, err := d.provider.RefreshToken(ctx, token)
		if err != nil {
			return 0, err
		}
		if err := d.accounts.UpdateTokens(ctx, account.UserEmail, refreshed.AccessToken, refreshed.Expiry); err != nil {
			return 0, err
		}
		log.Info().Time("expiry", refreshed.Expiry).Msg("access token refreshed")
		token = refreshed
	}

	mbox, err := d.provider.Open(ctx, token)
	if err != nil {
		return 0, err
	}

	refs, err := mbox.ListUnread(ctx)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}
	log.Info().Int("unread", len(refs)).Msg("processing unread mail")

	processed := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if err := d.processOne(ctx, mbox, ref); err != nil {
			// Leave the message unread so the next cycle retries it.
			log.Error().Err(err).Str("message_id", ref.ID).Msg("message processing failed")
			continue
		}
		processed++
	}
	return processed, nil
}

func (d *Dispatcher) processOne(ctx context.Context, mbox out.Mailbox, ref out.MessageRef) error {
	msg, err := mbox.GetMessage(ctx, ref.ID)
	if err != nil {
		return err
	}

	if err := d.processor.ProcessMessage(ctx, mbox, msg); err != nil {
		return err
	}

	return mbox.MarkRead(ctx, msg.ID)
}
