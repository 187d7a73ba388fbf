package allocation

import (
	"context"
	"errors"
	"testing"
)

func TestReconstruct(t *testing.T) {
	levels := []float64{0, 10, 20, 30}
	profits := [][]float64{{0, 0, 0}, {5, 4, 6}, {9, 7, 8}, {12, 9, 10}}

	tables, err := Solve(context.Background(), levels, profits)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	distribution, err := Reconstruct(levels, tables)
	if err != nil {
		t.Fatalf("Reconstruct() error = %v", err)
	}
	if len(distribution) != 3 {
		t.Fatalf("expected one amount per enterprise, got %d", len(distribution))
	}

	var sum float64
	for _, amount := range distribution {
		sum += amount
	}
	if sum > 30 {
		t.Fatalf("distribution %v exceeds budget", distribution)
	}
}

func TestReconstructDetectsCorruptChoiceTable(t *testing.T) {
	levels := []float64{0, 1, 2}
	tables := &Tables{
		enterprises: 2,
		levels:      3,
		dp:          make([]float64, 9),
		choice:      []int{0, 0, 0, 0, 1, 2, 0, 0, 2},
	}
	// Enterprise 2 takes index 2, leaving 0, then enterprise 1 is forced
	// to read choice[1][0] = 0. Corrupt it to claim more than remains.
	tables.choice[3] = 1

	_, err := Reconstruct(levels, tables)
	if !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	var violationErr *InvariantViolationError
	if !errors.As(err, &violationErr) || violationErr.Stage != "reconstruct" {
		t.Fatalf("expected reconstruct stage violation, got %v", err)
	}
}

func TestReconstructRejectsMismatchedTables(t *testing.T) {
	tables, err := Solve(context.Background(), []float64{0, 1}, [][]float64{{0}, {1}})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if _, err := Reconstruct([]float64{0, 1, 2}, tables); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if _, err := Reconstruct(nil, nil); !errors.Is(err, ErrInvariantViolation) {
		t.Fatalf("expected invariant violation for nil tables, got %v", err)
	}
}
