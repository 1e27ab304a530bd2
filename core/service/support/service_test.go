package support

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
)

type fakeClassifier struct {
	category domain.Category
	err      error
	gotBody  string
}

func (f *fakeClassifier) Classify(_ context.Context, body string) (domain.Category, error) {
	f.gotBody = body
	return f.category, f.err
}

type fakeRetriever struct {
	answer *out.Answer
	err    error
}

func (f *fakeRetriever) Answer(context.Context, string) (*out.Answer, error) {
	return f.answer, f.err
}

type fakeOrders struct {
	orders   map[string]*domain.Order
	statuses map[string]domain.OrderStatus
}

func newFakeOrders(orders ...*domain.Order) *fakeOrders {
	f := &fakeOrders{
		orders:   make(map[string]*domain.Order),
		statuses: make(map[string]domain.OrderStatus),
	}
	for _, o := range orders {
		f.orders[o.OrderID] = o
	}
	return f
}

func (f *fakeOrders) GetByID(_ context.Context, orderID string) (*domain.Order, error) {
	return f.orders[orderID], nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	if _, ok := f.orders[orderID]; !ok {
		return errors.New("order does not exist")
	}
	f.statuses[orderID] = status
	return nil
}

type fakeTriage struct {
	unhandled []*domain.UnhandledEmail
	attempts  []*domain.InvalidRefundAttempt
}

func (f *fakeTriage) SaveUnhandled(_ context.Context, e *domain.UnhandledEmail) error {
	f.unhandled = append(f.unhandled, e)
	return nil
}

func (f *fakeTriage) SaveInvalidRefundAttempt(_ context.Context, a *domain.InvalidRefundAttempt) error {
	f.attempts = append(f.attempts, a)
	return nil
}

type fakeMailbox struct {
	replies    []*out.ReplyRequest
	markedRead []string
}

func (f *fakeMailbox) ListUnread(context.Context) ([]out.MessageRef, error) { return nil, nil }

func (f *fakeMailbox) GetMessage(context.Context, string) (*domain.Message, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMailbox) SendReply(_ context.Context, req *out.ReplyRequest) error {
	f.replies = append(f.replies, req)
	return nil
}

func (f *fakeMailbox) MarkRead(_ context.Context, id string) error {
	f.markedRead = append(f.markedRead, id)
	return nil
}

func newTestService(c *fakeClassifier, r *fakeRetriever, o *fakeOrders, tr *fakeTriage) *Service {
	return NewService(c, r, o, tr, nil)
}

func questionMessage() *domain.Message {
	return &domain.Message{
		ID:       "msg-1",
		ThreadID: "thread-1",
		From:     "Jane Doe <jane@example.com>",
		Subject:  "Shipping question",
		Body:     "How long does shipping take?",
	}
}

func TestHandleQuestionWithConfidentAnswer(t *testing.T) {
	mbox := &fakeMailbox{}
	triage := &fakeTriage{}
	svc := newTestService(
		&fakeClassifier{category: domain.CategoryQuestion},
		&fakeRetriever{answer: &out.Answer{Text: "Shipping takes 3-5 days.", Score: 0.8}},
		newFakeOrders(),
		triage,
	)

	if err := svc.ProcessMessage(context.Background(), mbox, questionMessage()); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(mbox.replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(mbox.replies))
	}
	reply := mbox.replies[0]
	if reply.To != "Jane Doe <jane@example.com>" {
		t.Errorf("reply addressed to %q", reply.To)
	}
	if reply.Subject != "Re: Shipping question" {
		t.Errorf("reply subject %q", reply.Subject)
	}
	if reply.ThreadID != "thread-1" {
		t.Errorf("reply not threaded: %q", reply.ThreadID)
	}
	if !strings.Contains(reply.Body, "Shipping takes 3-5 days.") {
		t.Errorf("reply does not quote the answer: %q", reply.Body)
	}
	if len(triage.unhandled) != 0 {
		t.Errorf("confident answer should not be triaged")
	}
}

func TestHandleQuestionWithoutAnswer(t *testing.T) {
	mbox := &fakeMailbox{}
	triage := &fakeTriage{}
	svc := newTestService(
		&fakeClassifier{category: domain.CategoryQuestion},
		&fakeRetriever{answer: nil},
		newFakeOrders(),
		triage,
	)

	if err := svc.ProcessMessage(context.Background(), mbox, questionMessage()); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(mbox.replies) != 0 {
		t.Errorf("no reply expected without a confident answer, got %d", len(mbox.replies))
	}
	if len(triage.unhandled) != 1 {
		t.Fatalf("expected 1 unhandled record, got %d", len(triage.unhandled))
	}
	rec := triage.unhandled[0]
	if rec.Category != domain.CategoryQuestion {
		t.Errorf("category = %q", rec.Category)
	}
	if rec.Importance != 5 {
		t.Errorf("importance = %d, want 5", rec.Importance)
	}
}

func TestHandleRefundOrderFound(t *testing.T) {
	mbox := &fakeMailbox{}
	orders := newFakeOrders(&domain.Order{
		OrderID:       "ORD555",
		CustomerEmail: "jane@example.com",
		Status:        domain.OrderStatusCompleted,
	})
	triage := &fakeTriage{}
	svc := newTestService(&fakeClassifier{category: domain.CategoryRefund}, &fakeRetriever{}, orders, triage)

	msg := &domain.Message{
		ID:       "msg-2",
		ThreadID: "thread-2",
		From:     "Jane Doe <jane@example.com>",
		Subject:  "Refund please",
		Body:     "I want my money back, order id: ORD555",
	}
	if err := svc.ProcessMessage(context.Background(), mbox, msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if orders.statuses["ORD555"] != domain.OrderStatusRefundRequested {
		t.Errorf("order status = %q, want refund_requested", orders.statuses["ORD555"])
	}
	if len(mbox.replies) != 1 {
		t.Fatalf("expected exactly 1 reply, got %d", len(mbox.replies))
	}
	if !strings.Contains(mbox.replies[0].Body, "3 business days") {
		t.Errorf("reply missing SLA: %q", mbox.replies[0].Body)
	}
	if !strings.Contains(mbox.replies[0].Body, "ORD555") {
		t.Errorf("reply missing order id: %q", mbox.replies[0].Body)
	}
	if len(triage.attempts) != 0 {
		t.Errorf("found order must not log an invalid attempt")
	}
}

func TestHandleRefundNoOrderID(t *testing.T) {
	mbox := &fakeMailbox{}
	orders := newFakeOrders()
	triage := &fakeTriage{}
	svc := newTestService(&fakeClassifier{category: domain.CategoryRefund}, &fakeRetriever{}, orders, triage)

	msg := &domain.Message{
		ID:       "msg-3",
		ThreadID: "thread-3",
		From:     "jane@example.com",
		Subject:  "Refund",
		Body:     "I want a refund but I lost the receipt",
	}
	if err := svc.ProcessMessage(context.Background(), mbox, msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(mbox.replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(mbox.replies))
	}
	if !strings.Contains(mbox.replies[0].Body, "could not find an order ID") {
		t.Errorf("reply should ask for the order id: %q", mbox.replies[0].Body)
	}
	if len(triage.attempts) != 0 || len(triage.unhandled) != 0 {
		t.Errorf("missing id must not persist anything")
	}
}

func TestHandleRefundUnknownOrderFirstAttempt(t *testing.T) {
	mbox := &fakeMailbox{}
	orders := newFakeOrders()
	triage := &fakeTriage{}
	svc := newTestService(&fakeClassifier{category: domain.CategoryRefund}, &fakeRetriever{}, orders, triage)

	msg := &domain.Message{
		ID:       "msg-4",
		ThreadID: "thread-4",
		From:     "Jane <jane@example.com>",
		Subject:  "Refund",
		Body:     "Refund order id: ORD404 please",
	}
	if err := svc.ProcessMessage(context.Background(), mbox, msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(mbox.replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(mbox.replies))
	}
	if !strings.Contains(mbox.replies[0].Body, "ORD404") {
		t.Errorf("reply should cite the attempted id: %q", mbox.replies[0].Body)
	}
	if len(triage.attempts) != 0 {
		t.Errorf("first attempt must not be logged as invalid")
	}
}

func TestHandleRefundUnknownOrderRepeatedAttempt(t *testing.T) {
	mbox := &fakeMailbox{}
	orders := newFakeOrders()
	triage := &fakeTriage{}
	svc := newTestService(&fakeClassifier{category: domain.CategoryRefund}, &fakeRetriever{}, orders, triage)

	msg := &domain.Message{
		ID:        "msg-5",
		ThreadID:  "thread-5",
		From:      "Jane <jane@example.com>",
		Subject:   "Re: Refund",
		Body:      "I already told you, order id: ORD404",
		InReplyTo: "<prior-notice@mail.gmail.com>",
	}
	if err := svc.ProcessMessage(context.Background(), mbox, msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(mbox.replies) != 0 {
		t.Errorf("repeated attempt must not get a reply, got %d", len(mbox.replies))
	}
	if len(triage.attempts) != 1 {
		t.Fatalf("expected exactly 1 invalid attempt record, got %d", len(triage.attempts))
	}
	attempt := triage.attempts[0]
	if attempt.CustomerEmail != "jane@example.com" {
		t.Errorf("customer email = %q", attempt.CustomerEmail)
	}
	if attempt.InvalidOrderID != "ORD404" {
		t.Errorf("attempted id = %q", attempt.InvalidOrderID)
	}
	if attempt.FullEmailBody != msg.Body {
		t.Errorf("full body not preserved")
	}
}

func TestHandleOther(t *testing.T) {
	mbox := &fakeMailbox{}
	triage := &fakeTriage{}
	svc := newTestService(&fakeClassifier{category: domain.CategoryOther}, &fakeRetriever{}, newFakeOrders(), triage)

	msg := &domain.Message{
		ID:      "msg-6",
		From:    "someone@example.com",
		Subject: "hi",
		Body:    "this is urgent, asap!",
	}
	if err := svc.ProcessMessage(context.Background(), mbox, msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if len(mbox.replies) != 0 {
		t.Errorf("other handler must not reply")
	}
	if len(triage.unhandled) != 1 {
		t.Fatalf("expected 1 unhandled record, got %d", len(triage.unhandled))
	}
	rec := triage.unhandled[0]
	if rec.Category != domain.CategoryOther {
		t.Errorf("category = %q", rec.Category)
	}
	if rec.Importance != 5 {
		t.Errorf("importance = %d, want 5", rec.Importance)
	}
}

func TestProcessMessageCleansBeforeClassifying(t *testing.T) {
	classifier := &fakeClassifier{category: domain.CategoryOther}
	svc := newTestService(classifier, &fakeRetriever{}, newFakeOrders(), &fakeTriage{})

	msg := &domain.Message{
		ID:      "msg-7",
		From:    "someone@example.com",
		Subject: "hi",
		Body:    "<p>real content</p>\n> quoted line",
	}
	if err := svc.ProcessMessage(context.Background(), &fakeMailbox{}, msg); err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}

	if classifier.gotBody != "real content" {
		t.Errorf("classifier saw %q, want cleaned body", classifier.gotBody)
	}
}

func TestProcessMessageClassifierError(t *testing.T) {
	svc := newTestService(
		&fakeClassifier{err: errors.New("model unavailable")},
		&fakeRetriever{},
		newFakeOrders(),
		&fakeTriage{},
	)

	err := svc.ProcessMessage(context.Background(), &fakeMailbox{}, questionMessage())
	if err == nil {
		t.Fatal("expected classification error to propagate")
	}
}
