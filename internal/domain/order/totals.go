package order

import "github.com/shopspring/decimal"

// taxRate is the flat sales tax applied to every order subtotal.
var taxRate = decimal.New(8, -2) // 0.08

// round2 rounds a monetary amount to two fractional digits, half to even.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// calculateTotals recomputes the derived monetary fields from the order's
// items and shipping cost:
//
//	subtotal = sum(item.price * item.quantity)
//	tax      = round2(subtotal * 0.08)
//	total    = subtotal + tax + shipping (nil shipping counts as zero)
func (o *Order) calculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	o.Subtotal = round2(subtotal)
	o.Tax = round2(subtotal.Mul(taxRate))

	total := o.Subtotal.Add(o.Tax)
	if o.Shipping != nil {
		total = total.Add(*o.Shipping)
	}
	o.Total = round2(total)
}
