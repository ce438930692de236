package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/aws"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
)

type paymentVerifier interface {
	VerifyPayment(ctx context.Context, reference string, source payments.Source) (*orders.Order, error)
}

// Processor reconciles payment state from queued lifecycle events. It is a
// safety net behind the webhook: if the webhook is lost or delayed, the
// payment.initialized event eventually drives a verification against the
// gateway and settles the order either way.
type Processor struct {
	verifier paymentVerifier
}

// NewProcessor creates a worker processor around a payment verifier.
func NewProcessor(verifier paymentVerifier) *Processor {
	return &Processor{verifier: verifier}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			slog.ErrorContext(ctx, "worker error", "message_id", rec.MessageId, "error", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg queueMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	slog.InfoContext(ctx, "worker received event",
		"type", msg.Type, "order_id", msg.OrderID, "order_number", msg.OrderNumber)

	switch msg.Type {
	case aws.EventPaymentInitialized:
		return p.reconcile(ctx, msg)
	case aws.EventOrderConfirmed:
		// downstream notification only, nothing to reconcile
		return nil
	default:
		slog.WarnContext(ctx, "unknown event type, skipping", "type", msg.Type)
		return nil
	}
}

// reconcile verifies the payment behind an initialized order. Terminal
// outcomes (order gone, already settled, payment declined) are logged and
// the message is consumed; only gateway unavailability is worth a retry.
func (p *Processor) reconcile(ctx context.Context, msg queueMessage) error {
	order, err := p.verifier.VerifyPayment(ctx, msg.OrderNumber, payments.SourceWebhook)
	if err != nil {
		switch payments.KindOf(err) {
		case payments.KindGatewayUnavailable:
			return fmt.Errorf("verify %s: %w", msg.OrderNumber, err)
		case payments.KindNotFound:
			slog.WarnContext(ctx, "order vanished before reconciliation", "order_number", msg.OrderNumber)
			return nil
		default:
			slog.InfoContext(ctx, "reconciliation settled without confirmation",
				"order_number", msg.OrderNumber, "error", err)
			return nil
		}
	}

	slog.InfoContext(ctx, "reconciliation complete",
		"order_number", msg.OrderNumber, "order_status", order.Status, "payment_status", order.Payment.Status)
	return nil
}
