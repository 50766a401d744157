package services

import "github.com/shopspring/decimal"

// TaxRate is applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.10")

// PricedLine is a quantity of a product at a fixed unit price.
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// PriceBreakdown holds the money fields of an order.
type PriceBreakdown struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal is unit price times quantity, exact.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// PriceLines sums the lines exactly and rounds only the tax, to two decimal
// places. Total is subtotal plus the rounded tax.
func PriceLines(lines []PricedLine) PriceBreakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l.UnitPrice, l.Quantity))
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return PriceBreakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
