package handlers

import (
	"crypto/hmac"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/aws"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/paystack"
)

// signatureHeader carries the hex HMAC-SHA512 digest of the raw body.
const signatureHeader = "x-paystack-signature"

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// paymentWebhook authenticates and dispatches gateway callbacks.
//
// The signature is computed over the exact raw bytes of the body; parsing
// happens only after the signature is accepted. Once a request is
// authenticated and syntactically valid it is always ACKed with a 200, even
// when no matching order exists — otherwise the provider would retry-storm a
// webhook for an order that was legitimately deleted. Business failures are
// logged and metered, never surfaced to the provider.
func paymentWebhook(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
			return
		}

		sig := c.GetHeader(signatureHeader)
		expected := paystack.Signature(raw, cfg.WebhookSecret)
		if sig == "" || !hmac.Equal([]byte(sig), []byte(expected)) {
			// repeated invalid signatures indicate a forgery attempt
			slog.WarnContext(ctx, "webhook signature rejected", "remote_addr", c.ClientIP())
			if cfg.Metrics != nil {
				cfg.Metrics.Count(ctx, aws.MetricInvalidSignature)
			}
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid_signature"})
			return
		}

		var evt webhookEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
			return
		}

		switch evt.Event {
		case "charge.success":
			_, err := cfg.Service.VerifyPayment(ctx, evt.Data.Reference, payments.SourceWebhook)
			if err != nil {
				if payments.KindOf(err) == payments.KindNotFound && cfg.Metrics != nil {
					cfg.Metrics.Count(ctx, aws.MetricWebhookUnmatched)
				}
				slog.WarnContext(ctx, "webhook verification did not confirm",
					"event", evt.Event, "reference", evt.Data.Reference, "error", err)
			}
		default:
			slog.InfoContext(ctx, "webhook event ignored", "event", evt.Event)
		}

		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}
}
