package cem

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gianfranco98/pipeland/timestep"
	"github.com/gianfranco98/pipeland/utils/matutils"
)

// Filtered holds the elite episodes of a batch, flattened into
// training inputs: one observation row and one action label per elite
// step, in episode order.
type Filtered struct {
	Observations []float64 // Row major, one row per elite step
	Actions      []int

	// Threshold is the percentile of episodic returns used to select
	// elites; Mean is the arithmetic mean return of the whole batch.
	Threshold float64
	Mean      float64
}

// Filter selects the elite episodes of a batch: those whose return is
// not below the given percentile (0-100) of the batch's returns.
// Episodes strictly below the threshold are discarded; the steps of
// the retained episodes are flattened into parallel observation and
// action sequences.
func Filter(batch []timestep.Episode, percentile float64) (Filtered, error) {
	if len(batch) == 0 {
		return Filtered{}, fmt.Errorf("filter: empty batch")
	}
	if percentile < 0 || percentile > 100 {
		return Filtered{}, fmt.Errorf("filter: percentile must be in "+
			"[0, 100], got %v", percentile)
	}

	returns := make([]float64, len(batch))
	for i := range batch {
		returns[i] = batch[i].Return
	}

	filtered := Filtered{
		Threshold: percentileOf(returns, percentile),
		Mean:      stat.Mean(returns, nil),
	}

	for _, episode := range batch {
		if episode.Return < filtered.Threshold {
			continue
		}
		for _, step := range episode.Steps {
			filtered.Observations = append(filtered.Observations,
				matutils.VecData(step.Observation)...)
			filtered.Actions = append(filtered.Actions, step.Action)
		}
	}

	return filtered, nil
}

// percentileOf computes the p-th percentile of values by linear
// interpolation between order statistics: rank h = p/100 * n selects
// the h-th smallest value, interpolating between neighbours when h is
// fractional. For values [10, 20, 30, 40], p = 70 gives 28.
func percentileOf(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	h := p / 100 * float64(n)
	if h <= 1 {
		return sorted[0]
	}
	if h >= float64(n) {
		return sorted[n-1]
	}

	lower := int(math.Floor(h))
	frac := h - float64(lower)

	// lower is a 1-based rank in [1, n-1]
	if frac == 0 {
		return sorted[lower-1]
	}
	return sorted[lower-1] + frac*(sorted[lower]-sorted[lower-1])
}
