package allocation

// Reconstruct walks the choice table back from the full budget and returns
// the amount invested in each enterprise, in enterprise order.
func Reconstruct(levels []float64, t *Tables) ([]float64, error) {
	if t == nil {
		return nil, violation("reconstruct", "no tables to reconstruct from")
	}
	if t.levels != len(levels) {
		return nil, violation("reconstruct", "tables cover %d levels but %d were given", t.levels, len(levels))
	}

	distribution := make([]float64, t.enterprises)
	remaining := t.levels - 1
	for i := t.enterprises; i >= 1; i-- {
		k := t.Choice(i, remaining)
		if k < 0 || k > remaining {
			return nil, violation("reconstruct",
				"enterprise %d chose level index %d with only %d remaining", i, k, remaining)
		}
		distribution[i-1] = levels[k]
		remaining -= k
	}

	return distribution, nil
}
