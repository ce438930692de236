package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
)

// writeError maps a service error kind to an HTTP status and a caller-safe
// body. This is the only place the taxonomy meets the transport.
func writeError(c *gin.Context, err error) {
	kind := payments.KindOf(err)

	var status int
	var code string
	switch kind {
	case payments.KindValidation:
		status, code = http.StatusBadRequest, "validation_failed"
	case payments.KindEmptyCart:
		status, code = http.StatusBadRequest, "empty_cart"
	case payments.KindUnauthorized:
		status, code = http.StatusUnauthorized, "authentication_required"
	case payments.KindForbidden:
		status, code = http.StatusForbidden, "forbidden"
	case payments.KindNotFound:
		status, code = http.StatusNotFound, "not_found"
	case payments.KindInvalidState:
		status, code = http.StatusConflict, "invalid_state"
	case payments.KindAlreadyInitialized:
		status, code = http.StatusConflict, "already_initialized"
	case payments.KindInvalidStateForDeletion:
		status, code = http.StatusConflict, "deletion_not_allowed"
	case payments.KindDuplicateOrderNumber:
		status, code = http.StatusConflict, "duplicate_order_number"
	case payments.KindPaymentFailed, payments.KindAmountMismatch:
		// indistinguishable to the caller; detail stays in server logs
		status, code = http.StatusBadRequest, "payment_not_successful"
	case payments.KindGatewayUnavailable:
		status, code = http.StatusServiceUnavailable, "gateway_unavailable"
	case payments.KindInvalidSignature:
		status, code = http.StatusForbidden, "invalid_signature"
	default:
		slog.ErrorContext(c.Request.Context(), "unclassified error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	message := ""
	var se *payments.Error
	if errors.As(err, &se) {
		message = se.Message
	}
	c.JSON(status, gin.H{"error": code, "message": message})
}
