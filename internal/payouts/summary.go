package payouts

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tindago/tindago-backend/pkg/db/models"
	"github.com/tindago/tindago-backend/pkg/types"
)

// OrderSummaryEntry is one order line denormalized onto the invoice. The
// list is capped; OrderCount on the invoice carries the full total.
type OrderSummaryEntry struct {
	OrderID      uuid.UUID `json:"order_id"`
	OrderNumber  int64     `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	OrderDate    time.Time `json:"order_date"`
	TotalCents   int       `json:"total_cents"`
	ItemCount    int       `json:"item_count"`
}

// ProductSummaryEntry aggregates sold quantities per product, variant and
// size across the invoice period.
type ProductSummaryEntry struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	VariantName string    `json:"variant_name,omitempty"`
	SizeName    string    `json:"size_name,omitempty"`
	Quantity    int       `json:"quantity"`
	TotalCents  int       `json:"total_cents"`
}

// buildOrderSummary keeps the first limit orders by order date.
func buildOrderSummary(orders []models.Order, limit int) []OrderSummaryEntry {
	if limit <= 0 || limit > len(orders) {
		limit = len(orders)
	}
	entries := make([]OrderSummaryEntry, 0, limit)
	for _, order := range orders[:limit] {
		entries = append(entries, OrderSummaryEntry{
			OrderID:      order.ID,
			OrderNumber:  order.OrderNumber,
			CustomerName: order.CustomerName,
			OrderDate:    order.OrderDate,
			TotalCents:   order.TotalCents,
			ItemCount:    order.ItemCount,
		})
	}
	return entries
}

type productKey struct {
	productID uuid.UUID
	variant   string
	size      string
}

// buildProductSummary rolls up item lines by product, variant and size,
// sorted by quantity descending for readability on the statement.
func buildProductSummary(items []types.OrderItemSnapshot) []ProductSummaryEntry {
	byKey := map[productKey]*ProductSummaryEntry{}
	for _, item := range items {
		key := productKey{productID: item.ProductID, variant: item.VariantName, size: item.SizeName}
		entry, ok := byKey[key]
		if !ok {
			entry = &ProductSummaryEntry{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				VariantName: item.VariantName,
				SizeName:    item.SizeName,
			}
			byKey[key] = entry
		}
		entry.Quantity += item.Quantity
		entry.TotalCents += item.TotalCents
	}

	entries := make([]ProductSummaryEntry, 0, len(byKey))
	for _, entry := range byKey {
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Quantity != entries[j].Quantity {
			return entries[i].Quantity > entries[j].Quantity
		}
		if entries[i].ProductName != entries[j].ProductName {
			return entries[i].ProductName < entries[j].ProductName
		}
		if entries[i].VariantName != entries[j].VariantName {
			return entries[i].VariantName < entries[j].VariantName
		}
		return entries[i].SizeName < entries[j].SizeName
	})
	return entries
}

func itemSnapshot(item models.OrderItem) types.OrderItemSnapshot {
	return types.OrderItemSnapshot{
		ProductID:      item.ProductID,
		ProductName:    item.ProductName,
		VariantName:    item.VariantName,
		SizeName:       item.SizeName,
		Quantity:       item.Quantity,
		UnitPriceCents: item.UnitPriceCents,
		TotalCents:     item.TotalCents,
	}
}
