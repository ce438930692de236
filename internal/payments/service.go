package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/aws"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/paystack"
)

// Source identifies who triggered a verification. Webhook and user polling
// are expected to race; the store's conditional update decides the winner.
type Source string

const (
	SourceUser    Source = "user"
	SourceAdmin   Source = "admin"
	SourceWebhook Source = "webhook"
)

// OrderStore is the persistence boundary for orders.
type OrderStore interface {
	Create(ctx context.Context, order *orders.Order) error
	GetByID(ctx context.Context, orderID string) (*orders.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*orders.Order, error)
	GetByGatewayReference(ctx context.Context, reference string) (*orders.Order, error)
	SetGatewayReference(ctx context.Context, orderID, reference string) (bool, error)
	UpdatePaymentAndStatus(ctx context.Context, orderID string, upd orders.PaymentUpdate) (bool, error)
	Delete(ctx context.Context, orderID, orderNumber string) error
}

// Gateway is the payment provider boundary.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResponse, error)
}

// EventPublisher emits payment lifecycle events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, orderID, orderNumber string) error
}

// MetricsEmitter counts payment outcomes. May be nil.
type MetricsEmitter interface {
	Count(ctx context.Context, name string)
}

// ServiceConfig groups the service's collaborators and pricing knobs.
type ServiceConfig struct {
	Store            OrderStore
	Gateway          Gateway
	Events           EventPublisher // optional
	Metrics          MetricsEmitter // optional
	CallbackURL      string
	Currency         string        // defaults to NGN
	ShippingFlatRate float64       // naira, applied per order
	TaxRate          float64       // fraction of subtotal
	DeliveryWindow   time.Duration // defaults to 7 days
}

// Service owns the order/payment state machine. All failures are classified
// into a Kind before they cross the transport boundary.
type Service struct {
	store          OrderStore
	gateway        Gateway
	events         EventPublisher
	metrics        MetricsEmitter
	callbackURL    string
	currency       string
	shippingRate   float64
	taxRate        float64
	deliveryWindow time.Duration

	nowFunc func() time.Time
	newID   func() string
}

// NewService builds a Service from its configuration.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "NGN"
	}
	if cfg.DeliveryWindow <= 0 {
		cfg.DeliveryWindow = 7 * 24 * time.Hour
	}
	return &Service{
		store:          cfg.Store,
		gateway:        cfg.Gateway,
		events:         cfg.Events,
		metrics:        cfg.Metrics,
		callbackURL:    cfg.CallbackURL,
		currency:       cfg.Currency,
		shippingRate:   cfg.ShippingFlatRate,
		taxRate:        cfg.TaxRate,
		deliveryWindow: cfg.DeliveryWindow,
		nowFunc:        time.Now,
		newID:          uuid.NewString,
	}
}

// CreateOrderInput is the validated payload for a new order. ClientTotal is
// whatever the client claims the order costs; it is never trusted.
type CreateOrderInput struct {
	Items           []orders.LineItem
	ShippingAddress orders.Address
	BillingAddress  *orders.Address
	PaymentMethod   string
	ClientTotal     float64
}

// CreateOrder validates the cart snapshot, recomputes all monetary fields
// server-side and persists the order as pending/pending.
func (s *Service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*orders.Order, error) {
	if userID == "" {
		return nil, E(KindUnauthorized, "authentication required")
	}
	if len(in.Items) == 0 {
		return nil, E(KindEmptyCart, "cart is empty")
	}
	for i, it := range in.Items {
		if it.ProductID == "" || it.Name == "" {
			return nil, E(KindValidation, fmt.Sprintf("item %d: product reference and name are required", i))
		}
		if it.Quantity < 1 {
			return nil, E(KindValidation, fmt.Sprintf("item %d: quantity must be at least 1", i))
		}
		if it.Price <= 0 {
			return nil, E(KindValidation, fmt.Sprintf("item %d: price must be positive", i))
		}
	}
	if in.PaymentMethod != orders.MethodGateway && in.PaymentMethod != orders.MethodCashOnDelivery {
		return nil, E(KindValidation, "unsupported payment method")
	}

	var subtotal float64
	for _, it := range in.Items {
		subtotal += it.Price * float64(it.Quantity)
	}
	subtotal = round2(subtotal)
	tax := round2(subtotal * s.taxRate)
	shipping := s.shippingRate
	total := round2(subtotal + tax + shipping)

	if in.ClientTotal != 0 && !amountMatches(in.ClientTotal, total) {
		slog.WarnContext(ctx, "ignoring client-submitted total",
			"client_total", in.ClientTotal, "computed_total", total)
	}

	now := s.nowFunc().UTC()
	for attempt := 0; attempt < 5; attempt++ {
		number := s.generateOrderNumber()
		existing, err := s.store.GetByOrderNumber(ctx, number)
		if err != nil {
			return nil, Wrap(KindInternal, "order lookup failed", err)
		}
		if existing != nil {
			continue
		}

		order := &orders.Order{
			OrderID:         s.newID(),
			OrderNumber:     number,
			UserID:          userID,
			Items:           in.Items,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
			Payment: orders.Payment{
				Method:   in.PaymentMethod,
				Status:   orders.PaymentPending,
				Amount:   total,
				Currency: s.currency,
			},
			Status:       orders.StatusPending,
			Subtotal:     subtotal,
			ShippingCost: shipping,
			Tax:          tax,
			Total:        total,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err = s.store.Create(ctx, order)
		if errors.Is(err, orders.ErrDuplicateOrderNumber) {
			continue
		}
		if err != nil {
			return nil, Wrap(KindInternal, "could not create order", err)
		}
		slog.InfoContext(ctx, "order created",
			"order_id", order.OrderID, "order_number", number, "total", total)
		return order, nil
	}
	return nil, E(KindInternal, "could not allocate a unique order number")
}

// InitializeResult is what the caller needs to send the buyer to checkout.
type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// InitializePayment starts a gateway transaction for a pending order. The
// order number is the merchant reference, so the transaction stays 1:1 with
// the order; a second initialization is rejected.
func (s *Service) InitializePayment(ctx context.Context, orderID, requesterID, email string) (*InitializeResult, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, Wrap(KindInternal, "order lookup failed", err)
	}
	if o == nil {
		return nil, E(KindNotFound, "order not found")
	}
	if o.UserID != requesterID {
		return nil, E(KindForbidden, "order belongs to a different user")
	}
	if o.Status != orders.StatusPending {
		return nil, E(KindInvalidState, fmt.Sprintf("order is %s, payment can no longer be initialized", o.Status))
	}
	if o.Payment.Method != orders.MethodGateway {
		return nil, E(KindInvalidState, "order is not payable through the gateway")
	}
	if o.Payment.GatewayReference != "" {
		return nil, E(KindAlreadyInitialized, "payment already initialized for this order")
	}

	resp, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeRequest{
		Reference:   o.OrderNumber,
		Email:       email,
		AmountKobo:  paystack.ToKobo(o.Total),
		Currency:    o.Payment.Currency,
		CallbackURL: s.callbackURL,
		Metadata:    map[string]interface{}{"order_id": o.OrderID},
	})
	if err != nil {
		s.count(ctx, aws.MetricGatewayUnavailable)
		return nil, Wrap(KindGatewayUnavailable, "payment gateway unavailable, try again", err)
	}

	applied, err := s.store.SetGatewayReference(ctx, o.OrderID, resp.Reference)
	if err != nil {
		return nil, Wrap(KindInternal, "could not store gateway reference", err)
	}
	if !applied {
		// a concurrent initialization won; its transaction is the valid one
		return nil, E(KindAlreadyInitialized, "payment already initialized for this order")
	}

	s.publish(ctx, aws.EventPaymentInitialized, o.OrderID, o.OrderNumber)
	slog.InfoContext(ctx, "payment initialized",
		"order_id", o.OrderID, "order_number", o.OrderNumber, "reference", resp.Reference)

	return &InitializeResult{
		AuthorizationURL: resp.AuthorizationURL,
		AccessCode:       resp.AccessCode,
		Reference:        resp.Reference,
	}, nil
}

// VerifyPayment asks the gateway for the authoritative transaction state and
// applies the outcome. It is idempotent: verifying an already-completed
// order returns the current state without writing, and a lost race against a
// concurrent verification is a harmless no-op.
func (s *Service) VerifyPayment(ctx context.Context, reference string, source Source) (*orders.Order, error) {
	o, err := s.lookupByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, E(KindNotFound, "no order matches this reference")
	}
	if o.Payment.Status == orders.PaymentCompleted {
		return o, nil
	}
	if o.Status != orders.StatusPending {
		return nil, E(KindInvalidState, fmt.Sprintf("order is %s and cannot be verified", o.Status))
	}
	if o.Payment.Method != orders.MethodGateway {
		return nil, E(KindInvalidState, "order is not payable through the gateway")
	}

	vr, err := s.gateway.VerifyTransaction(ctx, o.OrderNumber)
	if err != nil {
		s.count(ctx, aws.MetricGatewayUnavailable)
		return nil, Wrap(KindGatewayUnavailable, "payment gateway unavailable, try again", err)
	}

	if vr.Status != paystack.TxSuccess {
		slog.WarnContext(ctx, "gateway reported unsuccessful transaction",
			"order_number", o.OrderNumber, "gateway_status", vr.Status, "source", string(source))
		s.count(ctx, aws.MetricPaymentFailed)
		return nil, s.failPayment(ctx, o, KindPaymentFailed)
	}

	paid := paystack.FromKobo(vr.AmountKobo)
	if !amountMatches(paid, o.Total) {
		slog.WarnContext(ctx, "gateway amount does not match order total",
			"order_number", o.OrderNumber, "paid", paid, "total", o.Total, "source", string(source))
		s.count(ctx, aws.MetricAmountMismatch)
		return nil, s.failPayment(ctx, o, KindAmountMismatch)
	}

	if !CanTransitionOrder(o.Status, orders.StatusConfirmed) {
		return nil, E(KindInvalidState, fmt.Sprintf("order is %s and cannot be confirmed", o.Status))
	}

	eta := s.nowFunc().UTC().Add(s.deliveryWindow)
	applied, err := s.store.UpdatePaymentAndStatus(ctx, o.OrderID, orders.PaymentUpdate{
		PaymentStatus:        orders.PaymentCompleted,
		OrderStatus:          orders.StatusConfirmed,
		GatewayTransactionID: vr.TransactionID,
		EstimatedDelivery:    &eta,
	})
	if err != nil {
		return nil, Wrap(KindInternal, "could not record payment", err)
	}
	if applied {
		s.count(ctx, aws.MetricPaymentConfirmed)
		s.publish(ctx, aws.EventOrderConfirmed, o.OrderID, o.OrderNumber)
		slog.InfoContext(ctx, "payment confirmed",
			"order_id", o.OrderID, "order_number", o.OrderNumber,
			"transaction_id", vr.TransactionID, "source", string(source))
	}

	// re-read so winner and loser both observe the final state
	final, err := s.store.GetByID(ctx, o.OrderID)
	if err != nil || final == nil {
		return nil, Wrap(KindInternal, "could not reload order", err)
	}
	if !applied && final.Payment.Status != orders.PaymentCompleted {
		return nil, E(KindInvalidState, fmt.Sprintf("order is %s and cannot be verified", final.Status))
	}
	return final, nil
}

// failPayment moves a pending order to failed/cancelled. The returned error
// carries a deliberately generic message; the distinguishing detail stays in
// the logs.
func (s *Service) failPayment(ctx context.Context, o *orders.Order, kind Kind) error {
	applied, err := s.store.UpdatePaymentAndStatus(ctx, o.OrderID, orders.PaymentUpdate{
		PaymentStatus: orders.PaymentFailed,
		OrderStatus:   orders.StatusCancelled,
	})
	if err != nil {
		return Wrap(KindInternal, "could not record payment failure", err)
	}
	if !applied {
		slog.WarnContext(ctx, "payment failure lost the update race",
			"order_id", o.OrderID, "order_number", o.OrderNumber)
	}
	return E(kind, "payment was not successful")
}

// AdminManualVerify confirms a pending order without consulting the gateway.
// It exists for manual reconciliation when the gateway is unreachable and is
// always logged as an administrative override.
func (s *Service) AdminManualVerify(ctx context.Context, orderID, adminID string) (*orders.Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, Wrap(KindInternal, "order lookup failed", err)
	}
	if o == nil {
		return nil, E(KindNotFound, "order not found")
	}
	if o.Payment.Status == orders.PaymentCompleted {
		return o, nil
	}
	if o.Status != orders.StatusPending {
		return nil, E(KindInvalidState, fmt.Sprintf("order is %s and cannot be verified", o.Status))
	}

	slog.WarnContext(ctx, "administrative payment override",
		"order_id", o.OrderID, "order_number", o.OrderNumber, "admin_id", adminID)

	eta := s.nowFunc().UTC().Add(s.deliveryWindow)
	applied, err := s.store.UpdatePaymentAndStatus(ctx, o.OrderID, orders.PaymentUpdate{
		PaymentStatus:     orders.PaymentCompleted,
		OrderStatus:       orders.StatusConfirmed,
		EstimatedDelivery: &eta,
	})
	if err != nil {
		return nil, Wrap(KindInternal, "could not record payment", err)
	}
	if applied {
		s.count(ctx, aws.MetricPaymentConfirmed)
		s.publish(ctx, aws.EventOrderConfirmed, o.OrderID, o.OrderNumber)
	}

	final, err := s.store.GetByID(ctx, o.OrderID)
	if err != nil || final == nil {
		return nil, Wrap(KindInternal, "could not reload order", err)
	}
	if !applied && final.Payment.Status != orders.PaymentCompleted {
		return nil, E(KindInvalidState, fmt.Sprintf("order is %s and cannot be verified", final.Status))
	}
	return final, nil
}

// GetOrder loads an order for its owner, or for an admin.
func (s *Service) GetOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*orders.Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, Wrap(KindInternal, "order lookup failed", err)
	}
	if o == nil {
		return nil, E(KindNotFound, "order not found")
	}
	if !isAdmin && o.UserID != requesterID {
		return nil, E(KindForbidden, "order belongs to a different user")
	}
	return o, nil
}

// DeleteOrder removes an order that is still pending or cancelled.
func (s *Service) DeleteOrder(ctx context.Context, orderID, requesterID string) error {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return Wrap(KindInternal, "order lookup failed", err)
	}
	if o == nil {
		return E(KindNotFound, "order not found")
	}
	if o.UserID != requesterID {
		return E(KindForbidden, "order belongs to a different user")
	}
	err = s.store.Delete(ctx, o.OrderID, o.OrderNumber)
	if errors.Is(err, orders.ErrInvalidStateForDeletion) {
		return E(KindInvalidStateForDeletion, fmt.Sprintf("order in status %q cannot be deleted", o.Status))
	}
	if err != nil {
		return Wrap(KindInternal, "could not delete order", err)
	}
	slog.InfoContext(ctx, "order deleted", "order_id", o.OrderID, "order_number", o.OrderNumber)
	return nil
}

// lookupByReference resolves an order by merchant reference first, then by
// the gateway's reference. Webhook events and user polling both key on the
// merchant reference.
func (s *Service) lookupByReference(ctx context.Context, reference string) (*orders.Order, error) {
	o, err := s.store.GetByOrderNumber(ctx, reference)
	if err != nil {
		return nil, Wrap(KindInternal, "order lookup failed", err)
	}
	if o != nil {
		return o, nil
	}
	o, err = s.store.GetByGatewayReference(ctx, reference)
	if err != nil {
		return nil, Wrap(KindInternal, "order lookup failed", err)
	}
	return o, nil
}

// generateOrderNumber produces a human-readable, time-sortable number like
// TF-1756400000000-a1b2c3d4. The store's uniqueness guard is the backstop
// for the rare collision.
func (s *Service) generateOrderNumber() string {
	return fmt.Sprintf("TF-%d-%s", s.nowFunc().UnixMilli(), s.newID()[:8])
}

func (s *Service) publish(ctx context.Context, eventType, orderID, orderNumber string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, orderID, orderNumber); err != nil {
		// eventing is best-effort; the reconciliation worker and webhook
		// both converge without it
		slog.WarnContext(ctx, "event publish failed",
			"event_type", eventType, "order_id", orderID, "error", err)
	}
}

func (s *Service) count(ctx context.Context, metric string) {
	if s.metrics != nil {
		s.metrics.Count(ctx, metric)
	}
}

// amountMatches compares two naira amounts at kobo resolution, tolerating
// at most one kobo (0.01) of rounding drift.
func amountMatches(a, b float64) bool {
	diff := paystack.ToKobo(a) - paystack.ToKobo(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
