package payouts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/tindago/tindago-backend/pkg/db/models"
)

// The statement is rendered as a self-contained HTML document. PDF
// conversion, when needed, happens downstream of the stored artifact.

var invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": formatCents,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Invoice.InvoiceNumber}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f5f5f5; }
.totals td { border: none; padding: 3px 10px; }
.totals .net { font-weight: bold; }
.muted { color: #777; font-size: 0.9em; }
</style>
</head>
<body>
<h1>Payout Statement {{.Invoice.InvoiceNumber}}</h1>
<p>{{.Organization.Name}}</p>
<p class="muted">Period {{.Invoice.PeriodStart.Format "Jan 2, 2006"}} to {{.Invoice.PeriodEnd.Format "Jan 2, 2006"}} &middot; {{.Invoice.OrderCount}} orders &middot; {{.Invoice.ItemCount}} items</p>

<table class="totals">
<tr><td>Gross sales</td><td>{{money .Invoice.GrossCents}}</td></tr>
<tr><td>Platform fee ({{.Invoice.PlatformFeePercentage}}%)</td><td>-{{money .Invoice.PlatformFeeCents}}</td></tr>
{{if ne .Invoice.AdjustmentCount 0}}<tr><td>Adjustments ({{.Invoice.AdjustmentCount}})</td><td>{{money .Invoice.AdjustmentCents}}</td></tr>{{end}}
<tr class="net"><td>Net payout</td><td>{{money .Invoice.NetCents}}</td></tr>
</table>
{{if gt .Invoice.VoucherDiscountCents 0}}<p class="muted">Voucher discounts already reflected in order totals: {{money .Invoice.VoucherDiscountCents}}</p>{{end}}

{{if .Orders}}
<h2>Orders</h2>
<table>
<tr><th>#</th><th>Customer</th><th>Date</th><th>Items</th><th>Total</th></tr>
{{range .Orders}}<tr><td>{{.OrderNumber}}</td><td>{{.CustomerName}}</td><td>{{.OrderDate.Format "Jan 2"}}</td><td>{{.ItemCount}}</td><td>{{money .TotalCents}}</td></tr>
{{end}}
</table>
{{if gt .MoreOrders 0}}<p class="muted">and {{.MoreOrders}} more orders</p>{{end}}
{{end}}

{{if .Products}}
<h2>Products</h2>
<table>
<tr><th>Product</th><th>Variant</th><th>Size</th><th>Qty</th><th>Total</th></tr>
{{range .Products}}<tr><td>{{.ProductName}}</td><td>{{.VariantName}}</td><td>{{.SizeName}}</td><td>{{.Quantity}}</td><td>{{money .TotalCents}}</td></tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

type invoiceTemplateData struct {
	Invoice      *models.PayoutInvoice
	Organization *models.Organization
	Orders       []OrderSummaryEntry
	Products     []ProductSummaryEntry
	MoreOrders   int
}

func renderInvoiceHTML(invoice *models.PayoutInvoice, org *models.Organization) ([]byte, error) {
	data := invoiceTemplateData{Invoice: invoice, Organization: org}
	if len(invoice.OrderSummary) > 0 {
		if err := json.Unmarshal(invoice.OrderSummary, &data.Orders); err != nil {
			return nil, fmt.Errorf("decode order summary: %w", err)
		}
	}
	if len(invoice.ProductSummary) > 0 {
		if err := json.Unmarshal(invoice.ProductSummary, &data.Products); err != nil {
			return nil, fmt.Errorf("decode product summary: %w", err)
		}
	}
	if invoice.OrderCount > len(data.Orders) {
		data.MoreOrders = invoice.OrderCount - len(data.Orders)
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute invoice template: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCents(cents int) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
