package support

import (
	"context"
	"fmt"

	"github.com/ioa2205/email-support-agent/core/domain"
	"github.com/ioa2205/email-support-agent/core/port/out"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

// Service routes one classified message through the matching workflow.
type Service struct {
	classifier out.Classifier
	retriever  out.KnowledgeRetriever
	orders     out.OrderRepository
	triage     out.TriageRepository
	log        *logger.Logger
}

func NewService(
	classifier out.Classifier,
	retriever out.KnowledgeRetriever,
	orders out.OrderRepository,
	triage out.TriageRepository,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		classifier: classifier,
		retriever:  retriever,
		orders:     orders,
		triage:     triage,
		log:        log,
	}
}

// ProcessMessage cleans, classifies and dispatches a single message. The
// mailbox is per-account state owned by the caller.
func (s *Service) ProcessMessage(ctx context.Context, mbox out.Mailbox, msg *domain.Message) error {
	clean := CleanBody(msg.Body)

	category, err := s.classifier.Classify(ctx, clean)
	if err != nil {
		return fmt.Errorf("failed to classify message %s: %w", msg.ID, err)
	}

	s.log.WithFields(map[string]any{
		"message_id": msg.ID,
		"category":   string(category),
	}).Info("Classified message from %s: %q", msg.From, msg.Subject)

	switch category {
	case domain.CategoryQuestion:
		return s.handleQuestion(ctx, mbox, msg, clean)
	case domain.CategoryRefund:
		return s.handleRefund(ctx, mbox, msg, clean)
	default:
		return s.handleOther(ctx, msg)
	}
}

// handleQuestion answers from the knowledge base, or hands the message to a
// human rather than reply with something it is not sure about.
func (s *Service) handleQuestion(ctx context.Context, mbox out.Mailbox, msg *domain.Message, question string) error {
	answer, err := s.retriever.Answer(ctx, question)
	if err != nil {
		return fmt.Errorf("knowledge lookup failed: %w", err)
	}

	if answer == nil {
		s.log.WithField("message_id", msg.ID).Info("No confident answer, saving to unhandled")
		return s.triage.SaveUnhandled(ctx, &domain.UnhandledEmail{
			ReceivedFrom: msg.From,
			Subject:      msg.Subject,
			Body:         msg.Body,
			Category:     domain.CategoryQuestion,
			Importance:   domain.ImportanceMax,
		})
	}

	body := fmt.Sprintf("Hello,\n\nHere is an answer to your question:\n\n\"%s\"\n\nIf this doesn't help, please let us know.\n\nThank you,\nSupport Agent", answer.Text)
	return mbox.SendReply(ctx, &out.ReplyRequest{
		To:       msg.From,
		Subject:  "Re: " + msg.Subject,
		Body:     body,
		ThreadID: msg.ThreadID,
	})
}

// handleRefund walks the refund workflow: find an order id, look it up, and
// either transition the order or reply asking for a usable id. A repeated
// failure on a reply to our own notice is logged for a human instead of
// answered, which caps the loop at one automated reply per attempt chain.
func (s *Service) handleRefund(ctx context.Context, mbox out.Mailbox, msg *domain.Message, clean string) error {
	customerEmail := ExtractAddress(msg.From)

	orderID, found := ExtractOrderID(clean)
	if !found {
		return mbox.SendReply(ctx, &out.ReplyRequest{
			To:       msg.From,
			Subject:  "Re: " + msg.Subject,
			Body:     "Hello,\n\nWe've received your refund request but could not find an order ID. Please reply to this email with your order ID.\n\nThank you,\nSupport Agent",
			ThreadID: msg.ThreadID,
		})
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("order lookup failed for %s: %w", orderID, err)
	}

	if order != nil {
		if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusRefundRequested); err != nil {
			return fmt.Errorf("failed to update order %s: %w", orderID, err)
		}
		body := fmt.Sprintf("Hello,\n\nYour refund request for order %s has been received. It will be processed within 3 business days.\n\nThank you,\nSupport Agent", orderID)
		return mbox.SendReply(ctx, &out.ReplyRequest{
			To:       msg.From,
			Subject:  "Re: " + msg.Subject,
			Body:     body,
			ThreadID: msg.ThreadID,
		})
	}

	if msg.IsReply() {
		// The sender already got one "not found" notice. Log for human
		// review and stay silent.
		s.log.WithField("message_id", msg.ID).Info("Logged repeated invalid order id attempt for %s", orderID)
		return s.triage.SaveInvalidRefundAttempt(ctx, &domain.InvalidRefundAttempt{
			CustomerEmail:  customerEmail,
			InvalidOrderID: orderID,
			FullEmailBody:  msg.Body,
		})
	}

	body := fmt.Sprintf("Hello,\n\nWe could not find an order with the ID '%s'. Please double-check the ID and reply to this email.\n\nThank you,\nSupport Agent", orderID)
	return mbox.SendReply(ctx, &out.ReplyRequest{
		To:       msg.From,
		Subject:  "Re: " + msg.Subject,
		Body:     body,
		ThreadID: msg.ThreadID,
	})
}

// handleOther scores importance and files the message for human follow-up.
// No reply is sent.
func (s *Service) handleOther(ctx context.Context, msg *domain.Message) error {
	importance := AssessImportance(msg.Body)
	return s.triage.SaveUnhandled(ctx, &domain.UnhandledEmail{
		ReceivedFrom: msg.From,
		Subject:      msg.Subject,
		Body:         msg.Body,
		Category:     domain.CategoryOther,
		Importance:   importance,
	})
}
