package orders

import "time"

// Order lifecycle statuses. Transitions only move forward except
// cancellation, which is reachable from pending and confirmed.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses. Forward-only: pending -> completed or pending -> failed.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Payment methods.
const (
	MethodGateway        = "gateway"
	MethodCashOnDelivery = "cash_on_delivery"
)

// LineItem is an immutable snapshot of a catalog product taken at
// order-creation time, so later catalog edits never change the order.
type LineItem struct {
	ProductID string  `dynamodbav:"product_id" json:"product_id"`
	Name      string  `dynamodbav:"name" json:"name"`
	Designer  string  `dynamodbav:"designer,omitempty" json:"designer,omitempty"`
	Price     float64 `dynamodbav:"price" json:"price"`
	Quantity  int     `dynamodbav:"quantity" json:"quantity"`
	Image     string  `dynamodbav:"image,omitempty" json:"image,omitempty"`
}

// Address is a structured postal address. Required fields are enforced at
// the request-validation boundary before anything reaches the store.
type Address struct {
	FullName   string `dynamodbav:"full_name" json:"full_name"`
	Line1      string `dynamodbav:"line1" json:"line1"`
	Line2      string `dynamodbav:"line2,omitempty" json:"line2,omitempty"`
	City       string `dynamodbav:"city" json:"city"`
	State      string `dynamodbav:"state" json:"state"`
	PostalCode string `dynamodbav:"postal_code" json:"postal_code"`
	Country    string `dynamodbav:"country" json:"country"`
	Phone      string `dynamodbav:"phone" json:"phone"`
}

// Payment is the payment sub-record of an order. Amounts are stored in the
// order's base currency unit (naira); minor-unit conversion happens only in
// the gateway client.
type Payment struct {
	Method               string  `dynamodbav:"method" json:"method"`
	Status               string  `dynamodbav:"status" json:"status"`
	GatewayReference     string  `dynamodbav:"gateway_reference,omitempty" json:"gateway_reference,omitempty"`
	GatewayTransactionID string  `dynamodbav:"gateway_transaction_id,omitempty" json:"gateway_transaction_id,omitempty"`
	Amount               float64 `dynamodbav:"amount" json:"amount"`
	Currency             string  `dynamodbav:"currency" json:"currency"`
}

// Order is the item stored in the orders DynamoDB table.
//
// order_number and gateway_reference are also kept as top-level attributes
// because GSI keys cannot reference nested paths.
type Order struct {
	OrderID          string     `dynamodbav:"order_id" json:"order_id"`         // PK
	OrderNumber      string     `dynamodbav:"order_number" json:"order_number"` // GSI order_number-index; merchant reference toward the gateway
	UserID           string     `dynamodbav:"user_id" json:"user_id"`
	Items            []LineItem `dynamodbav:"items" json:"items"`
	ShippingAddress  Address    `dynamodbav:"shipping_address" json:"shipping_address"`
	BillingAddress   *Address   `dynamodbav:"billing_address,omitempty" json:"billing_address,omitempty"`
	Payment          Payment    `dynamodbav:"payment" json:"payment"`
	GatewayReference string     `dynamodbav:"gateway_reference,omitempty" json:"-"` // GSI gateway_reference-index
	Status           string     `dynamodbav:"status" json:"status"`

	Subtotal     float64 `dynamodbav:"subtotal" json:"subtotal"`
	ShippingCost float64 `dynamodbav:"shipping_cost" json:"shipping_cost"`
	Tax          float64 `dynamodbav:"tax" json:"tax"`
	Total        float64 `dynamodbav:"total" json:"total"`

	EstimatedDelivery *time.Time `dynamodbav:"estimated_delivery,omitempty" json:"estimated_delivery,omitempty"`
	TrackingNumber    string     `dynamodbav:"tracking_number,omitempty" json:"tracking_number,omitempty"`
	DeliveredAt       *time.Time `dynamodbav:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	AdminNotes        string     `dynamodbav:"admin_notes,omitempty" json:"admin_notes,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// PaymentUpdate is the single mutation applied when a verification outcome
// lands. It is only ever applied while payment.status is still pending.
type PaymentUpdate struct {
	PaymentStatus        string
	OrderStatus          string
	GatewayTransactionID string
	EstimatedDelivery    *time.Time
}
