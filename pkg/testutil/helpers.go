// Package testutil provides common fixtures for testing.
package testutil

import (
	"math/rand"
	"strconv"
	"strings"
)

// SampleLevels and SampleProfits describe two enterprises over a ladder of
// 0..30 in steps of 10. The optimum is 13, reached by investing 20 and 10.
var (
	SampleLevels  = []float64{0, 10, 20, 30}
	SampleProfits = [][]float64{
		{0, 0},
		{5, 4},
		{9, 7},
		{12, 9},
	}
)

// SampleCSV renders the sample problem with a header row.
func SampleCSV() string {
	return FormatCSV(SampleLevels, SampleProfits, true)
}

// FormatCSV renders levels and profits in the upload layout: one row per
// level, the amount first.
func FormatCSV(levels []float64, profits [][]float64, header bool) string {
	var b strings.Builder
	if header && len(profits) > 0 {
		b.WriteString("investment")
		for e := range profits[0] {
			b.WriteString(",enterprise ")
			b.WriteString(strconv.Itoa(e + 1))
		}
		b.WriteByte('\n')
	}
	for i, level := range levels {
		b.WriteString(strconv.FormatFloat(level, 'f', -1, 64))
		if i < len(profits) {
			for _, p := range profits[i] {
				b.WriteByte(',')
				b.WriteString(strconv.FormatFloat(p, 'f', -1, 64))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RandomProblem builds a valid problem with the given ladder size: levels
// start at 0 and rise by random integer gaps of 1 to 20, and profits are
// non-decreasing.
func RandomProblem(rng *rand.Rand, levelCount, enterprises int) ([]float64, [][]float64) {
	levels := make([]float64, levelCount)
	profits := make([][]float64, levelCount)
	for i := range levels {
		profits[i] = make([]float64, enterprises)
		if i == 0 {
			continue
		}
		levels[i] = levels[i-1] + float64(1+rng.Intn(20))
		for e := range profits[i] {
			profits[i][e] = profits[i-1][e] + float64(rng.Intn(10))
		}
	}
	return levels, profits
}
