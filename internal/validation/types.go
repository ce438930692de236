package validation

// ItemRequest is a single cart line item as submitted by the client. Price
// and quantity feed the server-side total recomputation; the client-supplied
// total is never trusted.
type ItemRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Designer  string  `json:"designer,omitempty"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Image     string  `json:"image,omitempty"`
}

// AddressRequest is a structured postal address. All required fields are
// enforced here, before anything reaches the order store.
type AddressRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
}

// CreateOrderRequest is the payload for POST /orders.
type CreateOrderRequest struct {
	Items           []ItemRequest   `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest  `json:"shipping_address" validate:"required"`
	BillingAddress  *AddressRequest `json:"billing_address,omitempty" validate:"omitempty"`
	PaymentMethod   string          `json:"payment_method" validate:"required,oneof=gateway cash_on_delivery"`
	Total           float64         `json:"total,omitempty"` // client claim, ignored server-side
}

// InitializePaymentRequest is the payload for POST /payments/initialize.
type InitializePaymentRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// VerifyPaymentRequest is the payload for POST /payments/verify.
type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required"`
}

// AdminVerifyRequest is the payload for POST /admin/payments/verify.
type AdminVerifyRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}
