// Package view turns snapshots and datasets into the values the dashboard displays.
// It only formats, slices and filters; it never fetches.
package view

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber renders n with thousands separators, e.g. 1234567 as "1,234,567".
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPrice renders an ETH amount with five decimals.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.5f", price)
}

// FormatPercent renders a ratio in [0,1] as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatRemaining renders a duration as "Xm Ys"; negative durations render as "0m 0s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
