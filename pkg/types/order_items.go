package types

import "github.com/google/uuid"

// OrderItemSnapshot is one purchased line captured at order time. Small
// orders embed these directly on the order row; large orders reference rows
// in the order_items table instead. Callers resolve items through the orders
// repository accessor and never branch on the representation.
type OrderItemSnapshot struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	VariantName    string    `json:"variant_name,omitempty"`
	SizeName       string    `json:"size_name,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

// OrderItemSnapshots is the embedded jsonb representation.
type OrderItemSnapshots []OrderItemSnapshot
