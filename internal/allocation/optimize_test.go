package allocation

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestOptimizeTwoEnterprises(t *testing.T) {
	levels := []float64{0, 10, 20, 30}
	profits := [][]float64{
		{0, 0},
		{5, 4},
		{9, 7},
		{12, 9},
	}

	result, err := Optimize(context.Background(), levels, profits)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	want := &Result{
		MaxProfit:    13,
		Distribution: []float64{20, 10},
		Statistics: Statistics{
			TotalInvestment: 30,
			TotalProfit:     13,
			ROI:             13.0 / 30.0,
			Enterprises: []EnterpriseDetail{
				{EnterpriseID: 1, Investment: 20, Profit: 9, ROI: 0.45},
				{EnterpriseID: 2, Investment: 10, Profit: 4, ROI: 0.4},
			},
		},
	}
	if diff := cmp.Diff(want, result, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("Optimize() mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(result.Statistics.ROI-0.4333) > 0.0001 {
		t.Fatalf("expected aggregate ROI near 0.4333, got %f", result.Statistics.ROI)
	}
}

func TestOptimizeSingleEnterprise(t *testing.T) {
	result, err := Optimize(context.Background(), []float64{0, 5, 10}, [][]float64{{0}, {3}, {7}})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.MaxProfit != 7 {
		t.Fatalf("expected max profit 7, got %v", result.MaxProfit)
	}
	if diff := cmp.Diff([]float64{10}, result.Distribution); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimizeUnevenLadder(t *testing.T) {
	levels := []float64{0, 10, 25, 30}
	profits := [][]float64{
		{0, 0},
		{5, 4},
		{9, 7},
		{12, 9},
	}

	result, err := Optimize(context.Background(), levels, profits)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	// Budget is spent by level index: indices 2 and 1 sum to the top index 3.
	want := &Result{
		MaxProfit:    13,
		Distribution: []float64{25, 10},
		Statistics: Statistics{
			TotalInvestment: 35,
			TotalProfit:     13,
			ROI:             13.0 / 35.0,
			Enterprises: []EnterpriseDetail{
				{EnterpriseID: 1, Investment: 25, Profit: 9, ROI: 9.0 / 25.0},
				{EnterpriseID: 2, Investment: 10, Profit: 4, ROI: 0.4},
			},
		},
	}
	if diff := cmp.Diff(want, result, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("Optimize() mismatch (-want +got):\n%s", diff)
	}
}

func TestOptimizeRejectsInvalidInputBeforeSolving(t *testing.T) {
	// A cancelled context would make Solve fail; validation must win.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Optimize(ctx, []float64{10, 0, 20}, [][]float64{{0}, {1}, {2}})
	if err == nil {
		t.Fatal("expected an error for a ladder not starting at 0")
	}
	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError, got %T: %v", err, err)
	}
	if inputErr.Rule != RuleMissingZeroLevel {
		t.Fatalf("expected rule %s, got %s", RuleMissingZeroLevel, inputErr.Rule)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("expected errors.Is(err, ErrInvalidInput)")
	}
}

func TestOptimizeZeroIncentive(t *testing.T) {
	levels := []float64{0, 100, 200, 300, 400}
	profits := make([][]float64, len(levels))
	for i := range profits {
		profits[i] = []float64{0, 0, 0}
	}

	result, err := Optimize(context.Background(), levels, profits)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if result.MaxProfit != 0 {
		t.Fatalf("expected zero max profit, got %v", result.MaxProfit)
	}
	for e, amount := range result.Distribution {
		if amount != 0 {
			t.Fatalf("expected enterprise %d to be unfunded, got %v", e+1, amount)
		}
	}
	if result.Statistics.ROI != 0 {
		t.Fatalf("expected zero aggregate ROI, got %v", result.Statistics.ROI)
	}
}

func TestOptimizeTieBreakPrefersSmallestK(t *testing.T) {
	levels := []float64{0, 1, 2}
	profits := [][]float64{
		{0, 0},
		{1, 1},
		{2, 2},
	}

	first, err := Optimize(context.Background(), levels, profits)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	// Every split yields 2; the last enterprise keeps k=0 so the first takes it all.
	if diff := cmp.Diff([]float64{2, 0}, first.Distribution); diff != "" {
		t.Fatalf("distribution mismatch (-want +got):\n%s", diff)
	}

	second, err := Optimize(context.Background(), levels, profits)
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated solve differs (-first +second):\n%s", diff)
	}
}

func TestOptimizeWithLimits(t *testing.T) {
	levels := []float64{0, 1, 2}
	profits := [][]float64{{0, 0}, {1, 1}, {2, 2}}

	tests := []struct {
		name    string
		limits  Limits
		wantErr bool
	}{
		{"Unbounded", Limits{}, false},
		{"Within limits", Limits{MaxLevels: 3, MaxEnterprises: 2}, false},
		{"Too many levels", Limits{MaxLevels: 2}, true},
		{"Too many enterprises", Limits{MaxEnterprises: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OptimizeWithLimits(context.Background(), tt.limits, levels, profits)
			if tt.wantErr {
				var inputErr *InvalidInputError
				if !errors.As(err, &inputErr) || inputErr.Rule != RuleLimitsExceeded {
					t.Fatalf("expected %s error, got %v", RuleLimitsExceeded, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// bruteForce enumerates every assignment of level indices whose sum does not
// exceed the top index.
func bruteForce(levels []float64, profits [][]float64) float64 {
	enterprises := len(profits[0])
	top := len(levels) - 1
	best := 0.0
	var walk func(e, used int, acc float64)
	walk = func(e, used int, acc float64) {
		if e == enterprises {
			if acc > best {
				best = acc
			}
			return
		}
		for k := 0; used+k <= top; k++ {
			walk(e+1, used+k, acc+profits[k][e])
		}
	}
	walk(0, 0, 0)
	return best
}

func randomProblem(rng *rand.Rand) ([]float64, [][]float64) {
	numLevels := 1 + rng.Intn(6)
	numEnterprises := 1 + rng.Intn(4)

	// Strictly increasing from 0 with random gaps, sometimes fractional.
	levels := make([]float64, numLevels)
	profits := make([][]float64, numLevels)
	for i := range levels {
		profits[i] = make([]float64, numEnterprises)
		if i == 0 {
			continue
		}
		levels[i] = levels[i-1] + float64(1+rng.Intn(50))
		if rng.Intn(3) == 0 {
			levels[i] += 0.25
		}
		for e := range profits[i] {
			profits[i][e] = float64(rng.Intn(40))
		}
	}
	return levels, profits
}

func TestOptimizeProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for n := 0; n < 500; n++ {
		levels, profits := randomProblem(rng)

		result, err := Optimize(context.Background(), levels, profits)
		if err != nil {
			t.Fatalf("case %d: Optimize() error = %v (levels=%v profits=%v)", n, err, levels, profits)
		}

		if want := bruteForce(levels, profits); result.MaxProfit != want {
			t.Fatalf("case %d: max profit %v, exhaustive optimum %v (levels=%v profits=%v)",
				n, result.MaxProfit, want, levels, profits)
		}

		if result.Statistics.TotalProfit != result.MaxProfit {
			t.Fatalf("case %d: total profit %v differs from max profit %v", n, result.Statistics.TotalProfit, result.MaxProfit)
		}

		used := 0
		for _, amount := range result.Distribution {
			idx := levelIndex(levels, amount)
			if idx < 0 {
				t.Fatalf("case %d: allocated amount %v is not a budget level", n, amount)
			}
			used += idx
		}
		if top := len(levels) - 1; used > top {
			t.Fatalf("case %d: distribution uses level indices summing to %d, above top index %d", n, used, top)
		}

		again, err := Optimize(context.Background(), levels, profits)
		if err != nil {
			t.Fatalf("case %d: second Optimize() error = %v", n, err)
		}
		if diff := cmp.Diff(result, again); diff != "" {
			t.Fatalf("case %d: non-deterministic result (-first +second):\n%s", n, diff)
		}
	}
}
