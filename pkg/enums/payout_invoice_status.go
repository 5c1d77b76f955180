package enums

import "fmt"

// PayoutInvoiceStatus tracks the payout lifecycle of a generated invoice.
type PayoutInvoiceStatus string

const (
	PayoutInvoiceStatusPending    PayoutInvoiceStatus = "pending"
	PayoutInvoiceStatusProcessing PayoutInvoiceStatus = "processing"
	PayoutInvoiceStatusPaid       PayoutInvoiceStatus = "paid"
	PayoutInvoiceStatusCancelled  PayoutInvoiceStatus = "cancelled"
)

var validPayoutInvoiceStatuses = []PayoutInvoiceStatus{
	PayoutInvoiceStatusPending,
	PayoutInvoiceStatusProcessing,
	PayoutInvoiceStatusPaid,
	PayoutInvoiceStatusCancelled,
}

// String implements fmt.Stringer.
func (p PayoutInvoiceStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutInvoiceStatus.
func (p PayoutInvoiceStatus) IsValid() bool {
	for _, candidate := range validPayoutInvoiceStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the invoice can no longer move.
func (p PayoutInvoiceStatus) IsTerminal() bool {
	return p == PayoutInvoiceStatusPaid || p == PayoutInvoiceStatusCancelled
}

// CanTransitionTo reports whether the lifecycle transition is legal:
// pending → processing → paid, and pending/processing → cancelled.
func (p PayoutInvoiceStatus) CanTransitionTo(next PayoutInvoiceStatus) bool {
	if p.IsTerminal() {
		return false
	}
	switch next {
	case PayoutInvoiceStatusProcessing:
		return p == PayoutInvoiceStatusPending
	case PayoutInvoiceStatusPaid:
		return p == PayoutInvoiceStatusPending || p == PayoutInvoiceStatusProcessing
	case PayoutInvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// ParsePayoutInvoiceStatus converts raw input into a PayoutInvoiceStatus.
func ParsePayoutInvoiceStatus(value string) (PayoutInvoiceStatus, error) {
	for _, candidate := range validPayoutInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout invoice status %q", value)
}
