package enums

import "fmt"

// PaymentState tracks the review lifecycle of a single reported payment.
type PaymentState string

const (
	PaymentStatePending       PaymentState = "pending"
	PaymentStateProcessing    PaymentState = "processing"
	PaymentStateVerified      PaymentState = "verified"
	PaymentStateDeclined      PaymentState = "declined"
	PaymentStateFailed        PaymentState = "failed"
	PaymentStateRefundPending PaymentState = "refund_pending"
	PaymentStateRefunded      PaymentState = "refunded"
	PaymentStateCancelled     PaymentState = "cancelled"
)

var validPaymentStates = []PaymentState{
	PaymentStatePending,
	PaymentStateProcessing,
	PaymentStateVerified,
	PaymentStateDeclined,
	PaymentStateFailed,
	PaymentStateRefundPending,
	PaymentStateRefunded,
	PaymentStateCancelled,
}

// String implements fmt.Stringer.
func (p PaymentState) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentState.
func (p PaymentState) IsValid() bool {
	for _, candidate := range validPaymentStates {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the payment can no longer move.
func (p PaymentState) IsTerminal() bool {
	switch p {
	case PaymentStateDeclined, PaymentStateFailed, PaymentStateRefunded, PaymentStateCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the review transition is legal:
// pending/processing → verified|declined|failed, verified → refund_pending
// → refunded, and any non-terminal state → cancelled.
func (p PaymentState) CanTransitionTo(next PaymentState) bool {
	if p.IsTerminal() {
		return false
	}
	switch next {
	case PaymentStateProcessing:
		return p == PaymentStatePending
	case PaymentStateVerified, PaymentStateDeclined, PaymentStateFailed:
		return p == PaymentStatePending || p == PaymentStateProcessing
	case PaymentStateRefundPending:
		return p == PaymentStateVerified
	case PaymentStateRefunded:
		return p == PaymentStateRefundPending
	case PaymentStateCancelled:
		return true
	default:
		return false
	}
}

// ParsePaymentState converts raw input into a PaymentState.
func ParsePaymentState(value string) (PaymentState, error) {
	for _, candidate := range validPaymentStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment state %q", value)
}
