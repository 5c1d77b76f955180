package enums

import "fmt"

// AdjustmentKind classifies why a signed payout adjustment exists.
type AdjustmentKind string

const (
	AdjustmentKindCorrection    AdjustmentKind = "correction"
	AdjustmentKindVoucherRefund AdjustmentKind = "voucher_refund"
)

var validAdjustmentKinds = []AdjustmentKind{
	AdjustmentKindCorrection,
	AdjustmentKindVoucherRefund,
}

// String implements fmt.Stringer.
func (a AdjustmentKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AdjustmentKind.
func (a AdjustmentKind) IsValid() bool {
	for _, candidate := range validAdjustmentKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAdjustmentKind converts raw input into an AdjustmentKind.
func ParseAdjustmentKind(value string) (AdjustmentKind, error) {
	for _, candidate := range validAdjustmentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment kind %q", value)
}
