package payments

import "github.com/BadBoyBEWA/TrillionaireFit-sub001/internal/orders"

// orderTransitions is the one place that enumerates legal order-status
// edges. Terminal states: delivered, cancelled.
var orderTransitions = map[string][]string{
	orders.StatusPending:    {orders.StatusConfirmed, orders.StatusCancelled},
	orders.StatusConfirmed:  {orders.StatusProcessing, orders.StatusCancelled},
	orders.StatusProcessing: {orders.StatusShipped},
	orders.StatusShipped:    {orders.StatusDelivered},
}

// paymentTransitions enumerates legal payment-status edges. Forward only:
// completed never goes back to pending.
var paymentTransitions = map[string][]string{
	orders.PaymentPending:   {orders.PaymentCompleted, orders.PaymentFailed},
	orders.PaymentCompleted: {orders.PaymentRefunded},
}

// CanTransitionOrder reports whether an order may move from one status to
// another.
func CanTransitionOrder(from, to string) bool {
	return contains(orderTransitions[from], to)
}

// CanTransitionPayment reports whether a payment may move from one status to
// another.
func CanTransitionPayment(from, to string) bool {
	return contains(paymentTransitions[from], to)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
