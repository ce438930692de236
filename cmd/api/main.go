package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/aws"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/handlers"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/paystack"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/telemetry"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	telemetry.InitLogger()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	// The gateway secret key stays server-side only; it authenticates our
	// calls to Paystack and signs inbound webhooks.
	secretKey := os.Getenv("PAYSTACK_SECRET_KEY")
	if secretKey == "" {
		log.Fatal("PAYSTACK_SECRET_KEY is required")
	}
	webhookSecret := os.Getenv("PAYSTACK_WEBHOOK_SECRET")
	if webhookSecret == "" {
		// Paystack signs webhooks with the account secret key by default.
		webhookSecret = secretKey
	}

	gateway := paystack.NewClient(os.Getenv("PAYSTACK_BASE_URL"), secretKey, 15*time.Second)

	store := orders.NewStore(clients.DynamoDB, os.Getenv("ORDERS_TABLE"), os.Getenv("ORDER_NUMBERS_TABLE"))
	metrics := aws.NewMetricsEmitter(clients.CloudWatch, "TrillionaireFit/Payments")

	var publisher payments.EventPublisher
	if queueURL := os.Getenv("PAYMENT_EVENTS_QUEUE_URL"); queueURL != "" {
		publisher = aws.NewPublisher(clients.SQS, queueURL)
	}

	shippingFlatRate := 0.0
	if raw := os.Getenv("SHIPPING_FLAT_RATE"); raw != "" {
		shippingFlatRate, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			log.Fatalf("invalid SHIPPING_FLAT_RATE: %v", err)
		}
	}

	svc := payments.NewService(payments.ServiceConfig{
		Store:            store,
		Gateway:          gateway,
		Events:           publisher,
		Metrics:          metrics,
		CallbackURL:      os.Getenv("CALLBACK_URL"),
		ShippingFlatRate: shippingFlatRate,
	})

	cfg := handlers.HandlerConfig{
		Service:       svc,
		WebhookSecret: webhookSecret,
		Metrics:       metrics,
	}

	r := setupRouter(cfg)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
