package enums

import "fmt"

// VoucherRefundStatus tracks the admin decision on a cash-conversion request.
type VoucherRefundStatus string

const (
	VoucherRefundStatusPending  VoucherRefundStatus = "pending"
	VoucherRefundStatusApproved VoucherRefundStatus = "approved"
	VoucherRefundStatusRejected VoucherRefundStatus = "rejected"
)

var validVoucherRefundStatuses = []VoucherRefundStatus{
	VoucherRefundStatusPending,
	VoucherRefundStatusApproved,
	VoucherRefundStatusRejected,
}

// String implements fmt.Stringer.
func (v VoucherRefundStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VoucherRefundStatus.
func (v VoucherRefundStatus) IsValid() bool {
	for _, candidate := range validVoucherRefundStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the request has been decided. Decisions are
// final; a decided request never moves again.
func (v VoucherRefundStatus) IsTerminal() bool {
	return v == VoucherRefundStatusApproved || v == VoucherRefundStatusRejected
}

// ParseVoucherRefundStatus converts raw input into a VoucherRefundStatus.
func ParseVoucherRefundStatus(value string) (VoucherRefundStatus, error) {
	for _, candidate := range validVoucherRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher refund status %q", value)
}
