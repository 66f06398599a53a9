// Package aggregate reduces the pooled rate candidates of one
// (region, currency, side) series to a single trustworthy value.
//
// Sources scrape independently and can carry stale or wildly wrong
// numbers, so values outside a tight band around the sample median
// are rejected before averaging. No fixed quorum of agreeing sources
// is required.
package aggregate

import "sort"

// DefaultMedianBand is the default half-width of the outlier
// rejection band, as a fraction of the median
const DefaultMedianBand = 0.15

// Reduce collapses the pooled values into one integer.
// The second return value is false when the pool is empty and the
// caller must fall back to its configured default.
//
// Pools with fewer than 3 values carry too little signal for outlier
// filtering and are reduced to their truncated arithmetic mean
func Reduce(values []int, medianBand float64) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}

	if medianBand <= 0 {
		medianBand = DefaultMedianBand
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	if len(sorted) < 3 {
		return truncatedMean(sorted), true
	}

	var (
		median = sorted[len(sorted)/2]

		low  = float64(median) * (1 - medianBand)
		high = float64(median) * (1 + medianBand)
	)

	kept := make([]int, 0, len(sorted))

	for _, v := range sorted {
		if float64(v) < low || float64(v) > high {
			continue
		}

		kept = append(kept, v)
	}

	// The median is always inside its own band, but guard anyway
	if len(kept) == 0 {
		return median, true
	}

	return truncatedMean(kept), true
}

// truncatedMean is the arithmetic mean, truncated to integer
func truncatedMean(values []int) int {
	sum := 0

	for _, v := range values {
		sum += v
	}

	return sum / len(values)
}
