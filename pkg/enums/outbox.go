package enums

import "fmt"

// OutboxEventType names the domain events published through the outbox.
type OutboxEventType string

const (
	EventOrderStatusChanged    OutboxEventType = "order.status_changed"
	EventOrderCancelled        OutboxEventType = "order.cancelled"
	EventPaymentVerified       OutboxEventType = "payment.verified"
	EventPaymentDeclined       OutboxEventType = "payment.declined"
	EventInvoiceGenerated      OutboxEventType = "payout_invoice.generated"
	EventInvoicePaid           OutboxEventType = "payout_invoice.paid"
	EventVoucherRefundApproved OutboxEventType = "voucher_refund.approved"
	EventVoucherRefundRejected OutboxEventType = "voucher_refund.rejected"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventPaymentVerified,
	EventPaymentDeclined,
	EventInvoiceGenerated,
	EventInvoicePaid,
	EventVoucherRefundApproved,
	EventVoucherRefundRejected,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder                OutboxAggregateType = "order"
	AggregatePayment              OutboxAggregateType = "payment"
	AggregatePayoutInvoice        OutboxAggregateType = "payout_invoice"
	AggregateVoucherRefundRequest OutboxAggregateType = "voucher_refund_request"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregatePayment,
	AggregatePayoutInvoice,
	AggregateVoucherRefundRequest,
}

// String implements fmt.Stringer.
func (o OutboxAggregateType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == o {
			return true
		}
	}
	return false
}
