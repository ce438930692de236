package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/payments"
	"github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/validation"
)

// HandlerConfig groups dependencies for the HTTP layer.
type HandlerConfig struct {
	Service       *payments.Service
	WebhookSecret string
	Metrics       payments.MetricsEmitter // optional
}

// RegisterRoutes wires all order and payment routes onto the router.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	authed := r.Group("/", requireUser())
	authed.POST("/orders", createOrder(cfg, v))
	authed.GET("/orders/:id", getOrder(cfg))
	authed.DELETE("/orders/:id", deleteOrder(cfg))
	authed.POST("/payments/initialize", initializePayment(cfg, v))
	authed.POST("/payments/verify", verifyPayment(cfg, v))

	admin := r.Group("/admin", requireUser(), requireAdmin())
	admin.POST("/payments/verify", adminVerifyPayment(cfg, v))

	// signature-authenticated, no user principal
	r.POST("/payments/webhook", paymentWebhook(cfg))
}

func createOrder(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validation.CreateOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		in := payments.CreateOrderInput{
			Items:           toLineItems(req.Items),
			ShippingAddress: toAddress(req.ShippingAddress),
			PaymentMethod:   req.PaymentMethod,
			ClientTotal:     req.Total,
		}
		if req.BillingAddress != nil {
			addr := toAddress(*req.BillingAddress)
			in.BillingAddress = &addr
		}

		order, err := cfg.Service.CreateOrder(c.Request.Context(), c.GetString("user_id"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Location", "/orders/"+order.OrderID)
		c.JSON(http.StatusCreated, order)
	}
}

func getOrder(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := cfg.Service.GetOrder(c.Request.Context(), c.Param("id"), c.GetString("user_id"), c.GetBool("is_admin"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func deleteOrder(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := cfg.Service.DeleteOrder(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

func toLineItems(items []validation.ItemRequest) []orders.LineItem {
	out := make([]orders.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, orders.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Designer:  it.Designer,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	return out
}

func toAddress(a validation.AddressRequest) orders.Address {
	return orders.Address{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}
