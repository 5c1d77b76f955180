package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/enums"
)

// Filters describe the inputs supported by the order listings.
type Filters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.OrderPaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Query         string
}

// Summary exposes the aggregated fields returned in order listings.
type Summary struct {
	ID            uuid.UUID                `json:"id"`
	OrderNumber   int64                    `json:"order_number"`
	CustomerName  string                   `json:"customer_name"`
	TotalCents    int                      `json:"total_cents"`
	DiscountCents int                      `json:"discount_cents"`
	ItemCount     int                      `json:"item_count"`
	Currency      enums.Currency           `json:"currency"`
	Status        enums.OrderStatus        `json:"status"`
	PaymentStatus enums.OrderPaymentStatus `json:"payment_status"`
	OrderDate     time.Time                `json:"order_date"`
	CreatedAt     time.Time                `json:"created_at"`
}

// OrderList wraps the cursor-paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// OrderPage wraps the offset-paginated orders plus the total row count.
// Both listing variants sort by order_date DESC, created_at DESC, id DESC.
type OrderPage struct {
	Orders []Summary `json:"orders"`
	Total  int64     `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
