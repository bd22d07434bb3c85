package sales

// DiscountPercent maps a customer's historical purchase count to a discount tier.
//
//	0     -> 0%
//	1..3  -> 5%
//	4..7  -> 10%
//	8+    -> 15%
func DiscountPercent(purchasesCount int) int {
	switch {
	case purchasesCount >= 8:
		return 15
	case purchasesCount >= 4:
		return 10
	case purchasesCount >= 1:
		return 5
	default:
		return 0
	}
}
