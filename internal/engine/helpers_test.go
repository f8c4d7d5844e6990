package engine

import (
	"testing"
	"time"
)

func TestIsUSMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday mid session", time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC), true},
		{"exact open", time.Date(2025, 6, 10, 14, 30, 0, 0, time.UTC), true},
		{"minute before open", time.Date(2025, 6, 10, 14, 29, 0, 0, time.UTC), false},
		{"minute before close", time.Date(2025, 6, 10, 20, 59, 0, 0, time.UTC), true},
		{"exact close", time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC), false},
		{"early morning", time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC), false},
		{"saturday", time.Date(2025, 6, 14, 17, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2025, 6, 15, 17, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isUSMarketOpen(tc.t); got != tc.want {
				t.Errorf("isUSMarketOpen(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestSlippedPrice(t *testing.T) {
	cases := []struct {
		price, pct, want float64
	}{
		{100, 0.5, 100.5},
		{100, -0.5, 99.5},
		{111, -0.5, 110.445},
		{250.10, 1, 252.601},
		{100, 0, 100},
	}
	for _, tc := range cases {
		if got := slippedPrice(tc.price, tc.pct); got != tc.want {
			t.Errorf("slippedPrice(%v, %v) = %v, want %v", tc.price, tc.pct, got, tc.want)
		}
	}
}

func TestBreakoutPrice(t *testing.T) {
	if got := breakoutPrice(100, 2); got != 102 {
		t.Errorf("breakoutPrice(100, 2) = %v, want 102", got)
	}
	if got := breakoutPrice(80, 0); got != 80 {
		t.Errorf("breakoutPrice(80, 0) = %v, want 80", got)
	}
}
