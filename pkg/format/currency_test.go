package format

import "testing"

func TestUSD(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{0.5, "$0.50"},
		{1234.5, "$1,234.50"},
		{65000, "$65,000.00"},
		{5000.014, "$5,000.01"},
	}
	for _, tc := range cases {
		if got := USD(tc.in); got != tc.want {
			t.Fatalf("USD(%v): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestQuantityKeepsSmallFractions(t *testing.T) {
	if got := Quantity(0.00042); got != "0.00042" {
		t.Fatalf("got %q", got)
	}
}
