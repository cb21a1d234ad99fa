// Package report turns pairs of metric samples into terminal comparison blocks.
package report

import "strconv"

// FormatValue renders seconds with a precision that grows as the value
// shrinks, so sub-millisecond totals stay distinguishable from zero.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', precision(v), 64)
}

func precision(v float64) int {
	switch {
	case v >= 10:
		return 3
	case v >= 1:
		return 4
	case v >= 0.001:
		return 6
	default:
		return 9
	}
}

// PercentChange returns the signed change of comparison relative to baseline.
// A zero baseline has nothing to scale against and reports no change.
func PercentChange(baseline, comparison float64) float64 {
	if baseline == 0 {
		return 0
	}
	return (comparison - baseline) / baseline * 100
}
