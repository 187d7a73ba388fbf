package allocation

import "github.com/iwvelando/investment-optimizer/pkg/mathutil"

// EnterpriseDetail is the outcome of the allocation for one enterprise.
type EnterpriseDetail struct {
	EnterpriseID int     `json:"enterprise_id" yaml:"enterprise_id"`
	Investment   float64 `json:"investment" yaml:"investment"`
	Profit       float64 `json:"profit" yaml:"profit"`
	ROI          float64 `json:"roi" yaml:"roi"`
}

// Statistics aggregates per-enterprise and total profit figures.
type Statistics struct {
	TotalInvestment float64            `json:"total_investment" yaml:"total_investment"`
	TotalProfit     float64            `json:"total_profit" yaml:"total_profit"`
	ROI             float64            `json:"roi" yaml:"roi"`
	Enterprises     []EnterpriseDetail `json:"enterprises" yaml:"enterprises"`
}

// ComputeStatistics derives profit and ROI figures for a distribution whose
// amounts are members of levels.
func ComputeStatistics(levels []float64, profits [][]float64, distribution []float64) (Statistics, error) {
	stats := Statistics{
		Enterprises: make([]EnterpriseDetail, 0, len(distribution)),
	}

	for e, investment := range distribution {
		profit := 0.0
		if investment != 0 {
			idx := levelIndex(levels, investment)
			if idx < 0 {
				return Statistics{}, violation("statistics",
					"enterprise %d was allocated %g which is not a budget level", e+1, investment)
			}
			if e >= len(profits[idx]) {
				return Statistics{}, violation("statistics",
					"enterprise %d has no profit column", e+1)
			}
			profit = profits[idx][e]
		}

		stats.TotalInvestment += investment
		stats.TotalProfit += profit
		stats.Enterprises = append(stats.Enterprises, EnterpriseDetail{
			EnterpriseID: e + 1,
			Investment:   investment,
			Profit:       profit,
			ROI:          mathutil.SafeDivide(profit, investment),
		})
	}

	stats.ROI = mathutil.SafeDivide(stats.TotalProfit, stats.TotalInvestment)
	return stats, nil
}

// levelIndex returns the index of amount in the strictly increasing ladder,
// or -1 when it is not a member.
func levelIndex(levels []float64, amount float64) int {
	lo, hi := 0, len(levels)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case levels[mid] == amount:
			return mid
		case levels[mid] < amount:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return -1
}
