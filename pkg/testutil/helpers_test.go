package testutil

import (
	"math/rand"
	"testing"
)

func TestFormatCSV(t *testing.T) {
	got := FormatCSV([]float64{0, 2.5}, [][]float64{{0, 0}, {1, 1.25}}, true)
	want := "investment,enterprise 1,enterprise 2\n0,0,0\n2.5,1,1.25\n"
	if got != want {
		t.Errorf("FormatCSV() = %q, expected %q", got, want)
	}
}

func TestSampleCSVHasHeader(t *testing.T) {
	want := "investment,enterprise 1,enterprise 2\n0,0,0\n10,5,4\n20,9,7\n30,12,9\n"
	if got := SampleCSV(); got != want {
		t.Errorf("SampleCSV() = %q, expected %q", got, want)
	}
}

func TestRandomProblemShape(t *testing.T) {
	levels, profits := RandomProblem(rand.New(rand.NewSource(1)), 5, 3)
	if len(levels) != 5 || len(profits) != 5 {
		t.Fatalf("unexpected shape %d levels, %d rows", len(levels), len(profits))
	}
	if levels[0] != 0 {
		t.Errorf("first level = %v, expected 0", levels[0])
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] <= levels[i-1] {
			t.Errorf("level %d (%v) does not exceed %v", i, levels[i], levels[i-1])
		}
	}
	for e, v := range profits[0] {
		if v != 0 {
			t.Errorf("enterprise %d has nonzero base profit %v", e+1, v)
		}
	}
	for i := 1; i < len(profits); i++ {
		for e := range profits[i] {
			if profits[i][e] < profits[i-1][e] {
				t.Errorf("profit decreased at row %d enterprise %d", i, e+1)
			}
		}
	}
}
