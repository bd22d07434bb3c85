package sales

import "testing"

func TestDiscountPercent_Boundaries(t *testing.T) {
	cases := []struct {
		purchases int
		want      int
	}{
		{-1, 0},
		{0, 0},
		{1, 5},
		{3, 5},
		{4, 10},
		{7, 10},
		{8, 15},
		{9999, 15},
	}

	for _, tc := range cases {
		if got := DiscountPercent(tc.purchases); got != tc.want {
			t.Errorf("DiscountPercent(%d) = %d, want %d", tc.purchases, got, tc.want)
		}
	}
}
