package localcart

import "github.com/shopspring/decimal"

var (
	// ShippingFee is charged on non-empty carts under FreeShippingThreshold
	ShippingFee           = decimal.RequireFromString("5.00")
	FreeShippingThreshold = decimal.NewFromInt(50)
)

// Totals summarises a cart
type Totals struct {
	Subtotal     decimal.Decimal
	Shipping     decimal.Decimal
	Total        decimal.Decimal
	ItemCount    int
	FreeShipping bool
}

// ComputeTotals sums the cart. An empty cart ships nothing and costs
// nothing; shipping is free from FreeShippingThreshold up.
func ComputeTotals(c Cart) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range c.items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() && subtotal.LessThan(FreeShippingThreshold) {
		shipping = ShippingFee
	}

	return Totals{
		Subtotal:     subtotal,
		Shipping:     shipping,
		Total:        subtotal.Add(shipping),
		ItemCount:    count,
		FreeShipping: subtotal.IsPositive() && shipping.IsZero(),
	}
}
