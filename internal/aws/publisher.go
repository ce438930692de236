package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// Event types published to the payment events queue.
const (
	EventPaymentInitialized = "payment.initialized"
	EventOrderConfirmed     = "order.confirmed"
)

// PaymentEvent is the message body sent to downstream consumers
// (reconciliation worker, fulfillment, mail service).
type PaymentEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher wraps an SQS client and a queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// Publish sends a payment lifecycle event to SQS. The event type and order
// number are duplicated as message attributes so consumers can filter
// without parsing the body.
func (p *Publisher) Publish(ctx context.Context, eventType, orderID, orderNumber string) error {
	evt := PaymentEvent{
		Type:        eventType,
		OrderID:     orderID,
		OrderNumber: orderNumber,
		OccurredAt:  time.Now().UTC(),
	}
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	bodyStr := string(body)
	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {
				DataType:    awsString("String"),
				StringValue: &eventType,
			},
			"order_number": {
				DataType:    awsString("String"),
				StringValue: &orderNumber,
			},
		},
	}

	_, err = p.SQS.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
