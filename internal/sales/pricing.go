package sales

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// round2 rounds half away from zero to cents.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PricedLine is a cart line with its resolved unit price.
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Pricing is the monetary breakdown of a sale. Every figure is rounded on its
// own, matching what a printed ticket shows.
type Pricing struct {
	LineTotals      []decimal.Decimal
	Subtotal        decimal.Decimal
	DiscountPercent int
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
}

// Price computes line totals, subtotal, discount and total.
func Price(lines []PricedLine, discountPercent int) Pricing {
	p := Pricing{
		LineTotals:      make([]decimal.Decimal, len(lines)),
		DiscountPercent: discountPercent,
	}

	sum := decimal.Zero
	for i, l := range lines {
		lt := round2(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		p.LineTotals[i] = lt
		sum = sum.Add(lt)
	}
	p.Subtotal = round2(sum)
	p.DiscountAmount = round2(p.Subtotal.Mul(decimal.NewFromInt(int64(discountPercent))).Div(hundred))
	p.Total = round2(p.Subtotal.Sub(p.DiscountAmount))
	return p
}
