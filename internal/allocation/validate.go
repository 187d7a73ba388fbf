package allocation

import "math"

// Limits bounds the problem size accepted for a single solve. Zero disables
// the corresponding bound.
type Limits struct {
	MaxLevels      int `mapstructure:"maxLevels" yaml:"maxLevels,omitempty"`
	MaxEnterprises int `mapstructure:"maxEnterprises" yaml:"maxEnterprises,omitempty"`
}

// Validate checks the structural invariants of the budget ladder and profit
// matrix. It performs no computation beyond the checks themselves.
func Validate(levels []float64, profits [][]float64) error {
	if len(levels) == 0 {
		return invalid(RuleEmptyInput, "budget levels are empty")
	}
	if len(profits) == 0 {
		return invalid(RuleEmptyInput, "profit matrix is empty")
	}

	for i, level := range levels {
		if math.IsNaN(level) || math.IsInf(level, 0) {
			return invalid(RuleNonFiniteValue, "budget level %d is not a finite number", i)
		}
	}
	if levels[0] != 0 {
		return invalid(RuleMissingZeroLevel, "first budget level must be 0, got %g", levels[0])
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] <= levels[i-1] {
			return invalid(RuleNonIncreasingLevels,
				"budget levels must be strictly increasing: level %d (%g) follows %g", i, levels[i], levels[i-1])
		}
	}

	if len(profits) != len(levels) {
		return invalid(RuleRowCountMismatch,
			"profit matrix has %d rows but there are %d budget levels", len(profits), len(levels))
	}

	enterprises := len(profits[0])
	if enterprises == 0 {
		return invalid(RuleColumnCountMismatch, "profit matrix has no enterprise columns")
	}
	for i, row := range profits {
		if len(row) != enterprises {
			return invalid(RuleColumnCountMismatch,
				"row %d has %d enterprise columns, expected %d", i, len(row), enterprises)
		}
		for e, value := range row {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return invalid(RuleNonFiniteValue, "profit at row %d enterprise %d is not a finite number", i, e+1)
			}
		}
	}

	for e, value := range profits[0] {
		if value != 0 {
			return invalid(RuleNonzeroBaseProfit,
				"zero investment must yield zero profit, enterprise %d has %g", e+1, value)
		}
	}

	return nil
}

// Check rejects problems larger than the configured limits. The input is
// expected to have passed Validate.
func (l Limits) Check(levels []float64, profits [][]float64) error {
	if l.MaxLevels > 0 && len(levels) > l.MaxLevels {
		return invalid(RuleLimitsExceeded, "%d budget levels exceed the limit of %d", len(levels), l.MaxLevels)
	}
	if l.MaxEnterprises > 0 && len(profits) > 0 && len(profits[0]) > l.MaxEnterprises {
		return invalid(RuleLimitsExceeded, "%d enterprises exceed the limit of %d", len(profits[0]), l.MaxEnterprises)
	}
	return nil
}
