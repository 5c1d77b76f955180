package enums

import "fmt"

// AuditAction names the operation recorded in the audit trail.
type AuditAction string

const (
	AuditActionOrderStatusChanged    AuditAction = "order.status_changed"
	AuditActionOrderCancelled        AuditAction = "order.cancelled"
	AuditActionPaymentRecorded       AuditAction = "payment.recorded"
	AuditActionPaymentVerified       AuditAction = "payment.verified"
	AuditActionPaymentDeclined       AuditAction = "payment.declined"
	AuditActionPaymentRefunded       AuditAction = "payment.refunded"
	AuditActionBatchCreated          AuditAction = "batch.created"
	AuditActionBatchUpdated          AuditAction = "batch.updated"
	AuditActionBatchDeleted          AuditAction = "batch.deleted"
	AuditActionInvoiceGenerated      AuditAction = "payout_invoice.generated"
	AuditActionInvoiceStatusChanged  AuditAction = "payout_invoice.status_changed"
	AuditActionBankDetailsUpdated    AuditAction = "organization.bank_details_updated"
	AuditActionVoucherIssued         AuditAction = "voucher.issued"
	AuditActionVoucherRefundRequest  AuditAction = "voucher_refund.requested"
	AuditActionVoucherRefundApproved AuditAction = "voucher_refund.approved"
	AuditActionVoucherRefundRejected AuditAction = "voucher_refund.rejected"
)

var validAuditActions = []AuditAction{
	AuditActionOrderStatusChanged,
	AuditActionOrderCancelled,
	AuditActionPaymentRecorded,
	AuditActionPaymentVerified,
	AuditActionPaymentDeclined,
	AuditActionPaymentRefunded,
	AuditActionBatchCreated,
	AuditActionBatchUpdated,
	AuditActionBatchDeleted,
	AuditActionInvoiceGenerated,
	AuditActionInvoiceStatusChanged,
	AuditActionBankDetailsUpdated,
	AuditActionVoucherIssued,
	AuditActionVoucherRefundRequest,
	AuditActionVoucherRefundApproved,
	AuditActionVoucherRefundRejected,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}
