// Package pricing computes cart and order totals.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Line is one priced cart or order line.
type Line struct {
	UnitPrice float64
	Quantity  int
}

type Summary struct {
	Subtotal float64 `json:"subtotal"`
	GST      float64 `json:"gstAmount"`
	Handling float64 `json:"handlingAmount"`
	Delivery float64 `json:"deliveryAmount"`
	Total    float64 `json:"totalAmount"`
	GSTRate  float64 `json:"gstRate"`
}

type Calculator struct {
	GSTRate     decimal.Decimal
	HandlingFee decimal.Decimal
	DeliveryFee decimal.Decimal
}

// Default is 18% GST with a flat handling fee of 10 and free delivery.
func Default() Calculator {
	return Calculator{
		GSTRate:     decimal.RequireFromString("0.18"),
		HandlingFee: decimal.NewFromInt(10),
		DeliveryFee: decimal.Zero,
	}
}

// Summarize prices lines. Flat fees apply only to a non-empty set of lines.
func (c Calculator) Summarize(lines []Line) Summary {
	subtotal := decimal.Zero
	count := 0
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		count++
		subtotal = subtotal.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	gst := subtotal.Mul(c.GSTRate).Round(2)
	handling, delivery := decimal.Zero, decimal.Zero
	if count > 0 {
		handling = c.HandlingFee.Round(2)
		delivery = c.DeliveryFee.Round(2)
	}
	total := subtotal.Add(gst).Add(handling).Add(delivery).Round(2)

	return Summary{
		Subtotal: subtotal.InexactFloat64(),
		GST:      gst.InexactFloat64(),
		Handling: handling.InexactFloat64(),
		Delivery: delivery.InexactFloat64(),
		Total:    total.InexactFloat64(),
		GSTRate:  c.GSTRate.InexactFloat64(),
	}
}
