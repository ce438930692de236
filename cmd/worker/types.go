package main

import "time"

// queueMessage mirrors aws.PaymentEvent as it arrives off the queue.
type queueMessage struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}
