// Package pricing turns priced order lines into order totals.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/money"
)

// Line is the priced quantity of one order line.
type Line struct {
	UnitPriceCents int64
	Quantity       int
}

// TotalCents is unit price times quantity.
func (l Line) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Totals are the order header amounts in cents.
// Total always equals Subtotal + Tax + Shipping - Discount.
type Totals struct {
	SubtotalCents int64
	TaxCents      int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
}

// Calculator applies the storefront tax and shipping rules.
type Calculator struct {
	taxRate           decimal.Decimal
	freeShippingAbove int64
	flatShippingCents int64
}

// NewCalculator parses the configured decimal strings once at startup.
func NewCalculator(cfg config.PricingConfig) (*Calculator, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.TaxRate))
	if err != nil {
		return nil, fmt.Errorf("parse tax rate: %w", err)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("tax rate must not be negative")
	}
	threshold, err := money.ParseCents(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse free shipping threshold: %w", err)
	}
	flat, err := money.ParseCents(cfg.FlatShipping)
	if err != nil {
		return nil, fmt.Errorf("parse flat shipping: %w", err)
	}
	if threshold < 0 || flat < 0 {
		return nil, fmt.Errorf("shipping amounts must not be negative")
	}
	return &Calculator{taxRate: rate, freeShippingAbove: threshold, flatShippingCents: flat}, nil
}

// Quote sums the lines, rounds tax half away from zero to the cent, and
// waives shipping only when the subtotal is strictly above the threshold.
func (c *Calculator) Quote(lines []Line) Totals {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.TotalCents()
	}

	shipping := c.flatShippingCents
	if subtotal > c.freeShippingAbove {
		shipping = 0
	}

	totals := Totals{
		SubtotalCents: subtotal,
		TaxCents:      money.MulRate(subtotal, c.taxRate),
		ShippingCents: shipping,
	}
	totals.TotalCents = totals.SubtotalCents + totals.TaxCents + totals.ShippingCents - totals.DiscountCents
	return totals
}
