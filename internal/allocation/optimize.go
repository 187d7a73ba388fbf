package allocation

import "context"

// Result is the optimal allocation together with its statistics.
type Result struct {
	MaxProfit    float64    `json:"max_profit" yaml:"max_profit"`
	Distribution []float64  `json:"distribution" yaml:"distribution"`
	Statistics   Statistics `json:"statistics" yaml:"statistics"`
}

// Optimize validates the input, solves it and reconstructs the allocation.
func Optimize(ctx context.Context, levels []float64, profits [][]float64) (*Result, error) {
	return OptimizeWithLimits(ctx, Limits{}, levels, profits)
}

// OptimizeWithLimits is Optimize with a bound on the problem size.
func OptimizeWithLimits(ctx context.Context, limits Limits, levels []float64, profits [][]float64) (*Result, error) {
	if err := Validate(levels, profits); err != nil {
		return nil, err
	}
	if err := limits.Check(levels, profits); err != nil {
		return nil, err
	}

	tables, err := Solve(ctx, levels, profits)
	if err != nil {
		return nil, err
	}

	distribution, err := Reconstruct(levels, tables)
	if err != nil {
		return nil, err
	}

	stats, err := ComputeStatistics(levels, profits, distribution)
	if err != nil {
		return nil, err
	}

	maxProfit := tables.MaxProfit()
	if stats.TotalProfit != maxProfit {
		return nil, violation("statistics",
			"reconstructed profit %g differs from optimum %g", stats.TotalProfit, maxProfit)
	}

	return &Result{
		MaxProfit:    maxProfit,
		Distribution: distribution,
		Statistics:   stats,
	}, nil
}
