package aws

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metric names emitted by the payment core.
const (
	MetricPaymentConfirmed   = "PaymentConfirmed"
	MetricPaymentFailed      = "PaymentFailed"
	MetricAmountMismatch     = "AmountMismatch"
	MetricInvalidSignature   = "WebhookInvalidSignature"
	MetricWebhookUnmatched   = "WebhookUnmatchedOrder"
	MetricGatewayUnavailable = "GatewayUnavailable"
)

// MetricsEmitter publishes counters to CloudWatch. Emission is best-effort:
// a metrics failure must never fail the request that produced it.
type MetricsEmitter struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetricsEmitter returns an emitter bound to a CloudWatch namespace.
func NewMetricsEmitter(client CloudWatchAPI, namespace string) *MetricsEmitter {
	return &MetricsEmitter{
		client:    client,
		namespace: namespace,
	}
}

// Count increments a named counter by one.
func (m *MetricsEmitter) Count(ctx context.Context, name string) {
	now := time.Now().UTC()
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Timestamp:  &now,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		slog.WarnContext(ctx, "put metric data failed", "metric", name, "error", err)
	}
}
