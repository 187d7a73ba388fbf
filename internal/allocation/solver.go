// Package allocation distributes a fixed budget across independent
// enterprises so that aggregate profit is maximized.
//
// The budget is a discrete ladder of investable amounts shared by every
// enterprise. Optimize runs the whole pipeline:
//
//	Validate → Solve → Reconstruct → ComputeStatistics
//
// Every function is a pure function of its arguments; concurrent calls
// never share state.
package allocation

import (
	"context"
	"fmt"
)

// Tables holds the profit table and the parallel choice table of a single
// solve. Both are flat slices with (enterprises+1) rows of length levels.
type Tables struct {
	enterprises int
	levels      int
	dp          []float64
	choice      []int
}

// Enterprises returns the number of enterprises the tables were built for.
func (t *Tables) Enterprises() int {
	return t.enterprises
}

// Levels returns the number of budget levels the tables were built for.
func (t *Tables) Levels() int {
	return t.levels
}

// Profit returns the best aggregate profit for the first i enterprises
// sharing budget up to level index j.
func (t *Tables) Profit(i, j int) float64 {
	return t.dp[i*t.levels+j]
}

// Choice returns the level index given to enterprise i-1 in the optimum
// recorded by Profit(i, j).
func (t *Tables) Choice(i, j int) int {
	return t.choice[i*t.levels+j]
}

// MaxProfit is the optimum over the full budget using all enterprises.
func (t *Tables) MaxProfit() float64 {
	return t.Profit(t.enterprises, t.levels-1)
}

// Solve builds the profit and choice tables for a validated problem.
//
// For enterprise i and level index j it keeps the smallest k maximizing
// dp[i-1][j-k] + profits[k][i-1]; a candidate replaces the incumbent only
// when strictly greater, starting from a zero-profit, zero-investment
// incumbent. An enterprise is therefore left unfunded unless spending on
// it strictly improves profit.
//
// The context is consulted between enterprises only, so a cancelled solve
// never exposes a partially built row.
func Solve(ctx context.Context, levels []float64, profits [][]float64) (*Tables, error) {
	numLevels := len(levels)
	numEnterprises := len(profits[0])

	t := &Tables{
		enterprises: numEnterprises,
		levels:      numLevels,
		dp:          make([]float64, (numEnterprises+1)*numLevels),
		choice:      make([]int, (numEnterprises+1)*numLevels),
	}

	for i := 1; i <= numEnterprises; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("solve interrupted before enterprise %d: %w", i, err)
		}

		prev := t.dp[(i-1)*numLevels : i*numLevels]
		row := i * numLevels
		for j := 0; j < numLevels; j++ {
			best := 0.0
			bestK := 0
			for k := 0; k <= j; k++ {
				candidate := prev[j-k] + profits[k][i-1]
				if candidate > best {
					best = candidate
					bestK = k
				}
			}
			t.dp[row+j] = best
			t.choice[row+j] = bestK
		}
	}

	return t, nil
}
