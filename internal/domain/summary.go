package domain

import (
	"math"
	"strconv"
)

// CartSummary is the snapshot every surface renders. It is always derived
// from the stored items and never cached.
type CartSummary struct {
	Items           []LineItem `json:"items"`
	Count           int        `json:"count"`
	Subtotal        float64    `json:"subtotal"`
	SubtotalDisplay string     `json:"subtotal_display"`
}

// Count is the total number of units across all lines.
func Count(items []LineItem) int {
	var n int
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// UnitPrice parses the product's decimal price. A price that does not parse
// to a finite number counts as 0.
func UnitPrice(p Product) float64 {
	v, err := strconv.ParseFloat(p.Price, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += UnitPrice(item.Product) * float64(item.Quantity)
	}
	return total
}

// FormatAmount renders an amount with two decimals.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Summarize builds the summary for items.
func Summarize(items []LineItem) CartSummary {
	if items == nil {
		items = []LineItem{}
	}
	subtotal := Subtotal(items)
	return CartSummary{
		Items:           items,
		Count:           Count(items),
		Subtotal:        subtotal,
		SubtotalDisplay: FormatAmount(subtotal),
	}
}
