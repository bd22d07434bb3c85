package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPrice_TenPercentTier(t *testing.T) {
	p := Price([]PricedLine{{UnitPrice: dec("50.00"), Quantity: 4}}, 10)

	assert.True(t, p.Subtotal.Equal(dec("200.00")), "subtotal %s", p.Subtotal)
	assert.True(t, p.DiscountAmount.Equal(dec("20.00")), "discount %s", p.DiscountAmount)
	assert.True(t, p.Total.Equal(dec("180.00")), "total %s", p.Total)
	assert.Equal(t, 10, p.DiscountPercent)
}

func TestPrice_RoundsEveryStep(t *testing.T) {
	// 3 x 1.005 = 3.015 -> 3.02 ; 7 x 0.335 = 2.345 -> 2.35
	p := Price([]PricedLine{
		{UnitPrice: dec("1.005"), Quantity: 3},
		{UnitPrice: dec("0.335"), Quantity: 7},
	}, 5)

	assert.Equal(t, "3.02", p.LineTotals[0].StringFixed(2))
	assert.Equal(t, "2.35", p.LineTotals[1].StringFixed(2))
	assert.Equal(t, "5.37", p.Subtotal.StringFixed(2))
	// 5.37 * 5% = 0.2685 -> 0.27
	assert.Equal(t, "0.27", p.DiscountAmount.StringFixed(2))
	assert.Equal(t, "5.10", p.Total.StringFixed(2))
}

func TestPrice_MoneyBalances(t *testing.T) {
	lines := []PricedLine{
		{UnitPrice: dec("12.99"), Quantity: 3},
		{UnitPrice: dec("0.10"), Quantity: 1},
		{UnitPrice: dec("45.555"), Quantity: 2},
	}
	for _, pct := range []int{0, 5, 10, 15} {
		p := Price(lines, pct)

		sum := decimal.Zero
		for _, lt := range p.LineTotals {
			sum = sum.Add(lt)
		}
		assert.True(t, sum.Equal(p.Subtotal), "pct %d: sum of lines %s != subtotal %s", pct, sum, p.Subtotal)
		assert.True(t, p.Subtotal.Sub(p.DiscountAmount).Equal(p.Total), "pct %d: subtotal - discount != total", pct)
		assert.True(t, p.Total.Equal(p.Total.Round(2)))
	}
}

func TestPrice_NoDiscount(t *testing.T) {
	p := Price([]PricedLine{{UnitPrice: dec("35"), Quantity: 3}}, 0)

	assert.True(t, p.DiscountAmount.IsZero())
	assert.True(t, p.Total.Equal(dec("105")))
}
