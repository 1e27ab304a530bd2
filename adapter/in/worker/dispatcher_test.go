package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
)

type fakeAccountRepo struct {
	accounts     []*domain.Account
	listErr      error
	tokenUpdates map[string]string
}

func (f *fakeAccountRepo) ListAll(ctx context.Context) ([]*domain.Account, error) {
	return f.accounts, f.listErr
}

func (f *fakeAccountRepo) GetByEmail(ctx context.Context, userEmail string) (*domain.Account, error) {
	return nil, nil
}

func (f *fakeAccountRepo) Upsert(ctx context.Context, account *domain.Account) error {
	return nil
}

func (f *fakeAccountRepo) UpdateTokens(ctx context.Context, userEmail, accessToken string, expiry time.Time) error {
	if f.tokenUpdates == nil {
		f.tokenUpdates = make(map[string]string)
	}
	f.tokenUpdates[userEmail] = accessToken
	return nil
}

func (f *fakeAccountRepo) Delete(ctx context.Context, userEmail string) error {
	return nil
}

type fakeMailbox struct {
	refs       []out.MessageRef
	messages   map[string]*domain.Message
	listErr    error
	markedRead []string
}

func (f *fakeMailbox) ListUnread(ctx context.Context) ([]out.MessageRef, error) {
	return f.refs, f.listErr
}

func (f *fakeMailbox) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	msg, ok := f.messages[messageID]
	if !ok {
		return nil, errors.New("no such message")
	}
	return msg, nil
}

func (f *fakeMailbox) SendReply(ctx context.Context, req *out.ReplyRequest) error {
	return nil
}

func (f *fakeMailbox) MarkRead(ctx context.Context, messageID string) error {
	f.markedRead = append(f.markedRead, messageID)
	return nil
}

type fakeProvider struct {
	mailboxes  map[string]*fakeMailbox
	openErr    error
	refreshErr error
	refreshed  []string
}

func (f *fakeProvider) Open(ctx context.Context, token *oauth2.Token) (out.Mailbox, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	mbox, ok := f.mailboxes[token.AccessToken]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return mbox, nil
}

func (f *fakeProvider) RefreshToken(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	f.refreshed = append(f.refreshed, token.RefreshToken)
	return &oauth2.Token{
		AccessToken:  token.AccessToken + "-fresh",
		RefreshToken: token.RefreshToken,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

type fakeProcessor struct {
	processed []string
	failIDs   map[string]bool
}

func (f *fakeProcessor) ProcessMessage(ctx context.Context, mbox out.Mailbox, msg *domain.Message) error {
	if f.failIDs[msg.ID] {
		return errors.New("processing failed")
	}
	f.processed = append(f.processed, msg.ID)
	return nil
}

func validAccount(email, token string) *domain.Account {
	return &domain.Account{
		UserEmail:    email,
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		TokenExpiry:  time.Now().Add(time.Hour),
	}
}

func TestRunCycleProcessesUnread(t *testing.T) {
	mbox := &fakeMailbox{
		refs: []out.MessageRef{{ID: "m1"}, {ID: "m2"}},
		messages: map[string]*domain.Message{
			"m1": {ID: "m1", Body: "hello"},
			"m2": {ID: "m2", Body: "world"},
		},
	}
	provider := &fakeProvider{mailboxes: map[string]*fakeMailbox{"tok": mbox}}
	processor := &fakeProcessor{}
	repo := &fakeAccountRepo{accounts: []*domain.Account{validAccount("a@example.com", "tok")}}

	d := NewDispatcher(repo, provider, processor, nil, zerolog.Nop())

	if n, _ := d.RunCycle(context.Background()); n != 2 {
		t.Fatalf("RunCycle() = %d, want 2", n)
	}
	if len(processor.processed) != 2 {
		t.Errorf("processed %v", processor.processed)
	}
	if len(mbox.markedRead) != 2 {
		t.Errorf("marked read %v", mbox.markedRead)
	}
	if len(provider.refreshed) != 0 {
		t.Errorf("unexpected refresh for valid token")
	}
}

func TestRunCycleLeavesFailedMessageUnread(t *testing.T) {
	mbox := &fakeMailbox{
		refs: []out.MessageRef{{ID: "m1"}, {ID: "m2"}},
		messages: map[string]*domain.Message{
			"m1": {ID: "m1"},
			"m2": {ID: "m2"},
		},
	}
	provider := &fakeProvider{mailboxes: map[string]*fakeMailbox{"tok": mbox}}
	processor := &fakeProcessor{failIDs: map[string]bool{"m1": true}}
	repo := &fakeAccountRepo{accounts: []*domain.Account{validAccount("a@example.com", "tok")}}

	d := NewDispatcher(repo, provider, processor, nil, zerolog.Nop())

	if n, _ := d.RunCycle(context.Background()); n != 1 {
		t.Fatalf("RunCycle() = %d, want 1", n)
	}
	if len(mbox.markedRead) != 1 || mbox.markedRead[0] != "m2" {
		t.Errorf("marked read = %v, want only m2", mbox.markedRead)
	}
}

func TestRunCycleRefreshesExpiredToken(t *testing.T) {
	mbox := &fakeMailbox{}
	provider := &fakeProvider{mailboxes: map[string]*fakeMailbox{"tok-fresh": mbox}}
	repo := &fakeAccountRepo{accounts: []*domain.Account{
		{
			UserEmail:    "a@example.com",
			AccessToken:  "tok",
			RefreshToken: "refresh-tok",
			TokenExpiry:  time.Now().Add(-time.Minute),
		},
	}}

	d := NewDispatcher(repo, provider, &fakeProcessor{}, nil, zerolog.Nop())
	d.RunCycle(context.Background())

	if len(provider.refreshed) != 1 {
		t.Fatalf("refreshed %d tokens, want 1", len(provider.refreshed))
	}
	if repo.tokenUpdates["a@example.com"] != "tok-fresh" {
		t.Errorf("persisted token = %q, want refreshed one", repo.tokenUpdates["a@example.com"])
	}
}

func TestRunCycleIsolatesAccountFailures(t *testing.T) {
	good := &fakeMailbox{
		refs:     []out.MessageRef{{ID: "m1"}},
		messages: map[string]*domain.Message{"m1": {ID: "m1"}},
	}
	bad := &fakeMailbox{listErr: errors.New("gmail down")}
	provider := &fakeProvider{mailboxes: map[string]*fakeMailbox{
		"tok-bad":  bad,
		"tok-good": good,
	}}
	repo := &fakeAccountRepo{accounts: []*domain.Account{
		validAccount("bad@example.com", "tok-bad"),
		validAccount("good@example.com", "tok-good"),
	}}
	processor := &fakeProcessor{}

	d := NewDispatcher(repo, provider, processor, nil, zerolog.Nop())

	if n, _ := d.RunCycle(context.Background()); n != 1 {
		t.Fatalf("RunCycle() = %d, want 1", n)
	}
	if len(processor.processed) != 1 || processor.processed[0] != "m1" {
		t.Errorf("processed = %v", processor.processed)
	}
}

func TestRunCycleListAccountsError(t *testing.T) {
	repo := &fakeAccountRepo{listErr: errors.New("db down")}
	d := NewDispatcher(repo, &fakeProvider{}, &fakeProcessor{}, nil, zerolog.Nop())

	if n, _ := d.RunCycle(context.Background()); n != 0 {
		t.Fatalf("RunCycle() = %d, want 0", n)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &fakeAccountRepo{}
	d := NewDispatcher(repo, &fakeProvider{}, &fakeProcessor{}, &Config{
		PollInterval:     10 * time.Millisecond,
		IdlePollInterval: 10 * time.Millisecond,
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
