package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/aws"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/paystack"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/telemetry"
)

func main() {
	telemetry.InitLogger()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	secretKey := os.Getenv("PAYSTACK_SECRET_KEY")
	if secretKey == "" {
		log.Fatal("PAYSTACK_SECRET_KEY is required")
	}

	store := orders.NewStore(clients.DynamoDB, os.Getenv("ORDERS_TABLE"), os.Getenv("ORDER_NUMBERS_TABLE"))
	gateway := paystack.NewClient(os.Getenv("PAYSTACK_BASE_URL"), secretKey, 15*time.Second)
	metrics := aws.NewMetricsEmitter(clients.CloudWatch, "TrillionaireFit/Payments")

	svc := payments.NewService(payments.ServiceConfig{
		Store:   store,
		Gateway: gateway,
		Metrics: metrics,
	})

	processor := NewProcessor(svc)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"payment.initialized","order_id":"local-order-1","order_number":"TF-0-local"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := processor.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(processor.Handle)
}
