package enums

import "fmt"

// OrderPaymentStatus tracks how much of an order has been collected. It is a
// parallel dimension to OrderStatus and evolves independently.
type OrderPaymentStatus string

const (
	OrderPaymentStatusPending     OrderPaymentStatus = "pending"
	OrderPaymentStatusDownpayment OrderPaymentStatus = "downpayment"
	OrderPaymentStatusPaid        OrderPaymentStatus = "paid"
	OrderPaymentStatusRefunded    OrderPaymentStatus = "refunded"
)

var validOrderPaymentStatuses = []OrderPaymentStatus{
	OrderPaymentStatusPending,
	OrderPaymentStatusDownpayment,
	OrderPaymentStatusPaid,
	OrderPaymentStatusRefunded,
}

// String implements fmt.Stringer.
func (o OrderPaymentStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderPaymentStatus.
func (o OrderPaymentStatus) IsValid() bool {
	for _, candidate := range validOrderPaymentStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the payment dimension can no longer move.
func (o OrderPaymentStatus) IsTerminal() bool {
	return o == OrderPaymentStatusRefunded
}

// CanTransitionTo reports whether the payment-dimension transition is legal:
// pending → downpayment → paid, and paid/downpayment → refunded.
func (o OrderPaymentStatus) CanTransitionTo(next OrderPaymentStatus) bool {
	switch next {
	case OrderPaymentStatusDownpayment:
		return o == OrderPaymentStatusPending
	case OrderPaymentStatusPaid:
		return o == OrderPaymentStatusPending || o == OrderPaymentStatusDownpayment
	case OrderPaymentStatusRefunded:
		return o == OrderPaymentStatusPaid || o == OrderPaymentStatusDownpayment
	default:
		return false
	}
}

// ParseOrderPaymentStatus converts raw input into an OrderPaymentStatus.
func ParseOrderPaymentStatus(value string) (OrderPaymentStatus, error) {
	for _, candidate := range validOrderPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order payment status %q", value)
}
