package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
)

type fakeVerifier struct {
	calls []string
	order *orders.Order
	err   error
}

func (f *fakeVerifier) VerifyPayment(ctx context.Context, reference string, source payments.Source) (*orders.Order, error) {
	f.calls = append(f.calls, reference)
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func sqsEvent(t *testing.T, msgs ...queueMessage) events.SQSEvent {
	t.Helper()
	var recs []events.SQSMessage
	for _, m := range msgs {
		body, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal message: %v", err)
		}
		recs = append(recs, events.SQSMessage{Body: string(body)})
	}
	return events.SQSEvent{Records: recs}
}

func TestProcessor_InitializedEventTriggersVerification(t *testing.T) {
	v := &fakeVerifier{order: &orders.Order{
		Status:  orders.StatusConfirmed,
		Payment: orders.Payment{Status: orders.PaymentCompleted},
	}}
	p := NewProcessor(v)

	ev := sqsEvent(t, queueMessage{Type: "payment.initialized", OrderID: "o1", OrderNumber: "TF-1"})
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.calls) != 1 || v.calls[0] != "TF-1" {
		t.Fatalf("expected one verification for TF-1, got %v", v.calls)
	}
}

func TestProcessor_ConfirmedEventIsConsumedWithoutVerification(t *testing.T) {
	v := &fakeVerifier{}
	p := NewProcessor(v)

	ev := sqsEvent(t, queueMessage{Type: "order.confirmed", OrderID: "o1", OrderNumber: "TF-1"})
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.calls) != 0 {
		t.Fatalf("order.confirmed should not verify, got %v", v.calls)
	}
}

func TestProcessor_GatewayUnavailableIsRetried(t *testing.T) {
	v := &fakeVerifier{err: payments.E(payments.KindGatewayUnavailable, "gateway timed out")}
	p := NewProcessor(v)

	ev := sqsEvent(t, queueMessage{Type: "payment.initialized", OrderNumber: "TF-1"})
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error so the message is retried")
	}
}

func TestProcessor_TerminalOutcomesConsumeTheMessage(t *testing.T) {
	for _, kind := range []payments.Kind{
		payments.KindNotFound,
		payments.KindInvalidState,
		payments.KindPaymentFailed,
		payments.KindAmountMismatch,
	} {
		v := &fakeVerifier{err: payments.E(kind, "settled")}
		p := NewProcessor(v)

		ev := sqsEvent(t, queueMessage{Type: "payment.initialized", OrderNumber: "TF-1"})
		if err := p.Handle(context.Background(), ev); err != nil {
			t.Fatalf("kind %v should be terminal, got error: %v", kind, err)
		}
	}
}

func TestProcessor_MalformedBodyIsRetriedForDLQ(t *testing.T) {
	p := NewProcessor(&fakeVerifier{})

	ev := events.SQSEvent{Records: []events.SQSMessage{{Body: "{not json"}}}
	if err := p.Handle(context.Background(), ev); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestProcessor_UnknownEventTypeSkipped(t *testing.T) {
	v := &fakeVerifier{}
	p := NewProcessor(v)

	ev := sqsEvent(t, queueMessage{Type: "refund.created", OrderNumber: "TF-1"})
	if err := p.Handle(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.calls) != 0 {
		t.Fatalf("unknown event should not verify, got %v", v.calls)
	}
}
