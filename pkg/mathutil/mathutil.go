// Package mathutil provides common mathematical utility functions.
package mathutil

// SafeDivide returns numerator / denominator, or 0 when the denominator is
// not positive. ROI of an unfunded enterprise is defined as 0.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator > 0 {
		return numerator / denominator
	}
	return 0
}
