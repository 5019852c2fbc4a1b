package cem

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/timestep"
)

// episodeWithReturn returns a single-step episode with the given
// action and total reward
func episodeWithReturn(action int, total float64) timestep.Episode {
	var e timestep.Episode
	e.Add(mat.NewVecDense(1, []float64{total}), action, total)
	return e
}

func TestFilterFixture(t *testing.T) {
	batch := []timestep.Episode{
		episodeWithReturn(0, 10),
		episodeWithReturn(1, 20),
		episodeWithReturn(0, 30),
		episodeWithReturn(1, 40),
	}

	filtered, err := Filter(batch, 70)
	if err != nil {
		t.Fatal(err)
	}

	if filtered.Threshold != 28 {
		t.Errorf("incorrect reward threshold \n\twant(%v) \n\thave(%v)",
			28.0, filtered.Threshold)
	}
	if filtered.Mean != 25 {
		t.Errorf("incorrect mean reward \n\twant(%v) \n\thave(%v)",
			25.0, filtered.Mean)
	}

	// Only the episodes with returns 30 and 40 survive the threshold
	if len(filtered.Actions) != 2 {
		t.Fatalf("incorrect number of elite steps \n\twant(%v) \n\thave(%v)",
			2, len(filtered.Actions))
	}
	if filtered.Actions[0] != 0 || filtered.Actions[1] != 1 {
		t.Errorf("incorrect elite actions: %v", filtered.Actions)
	}
	if filtered.Observations[0] != 30 || filtered.Observations[1] != 40 {
		t.Errorf("incorrect elite observations: %v", filtered.Observations)
	}
}

func TestFilterRetention(t *testing.T) {
	returns := []float64{3, -7, 12, 0, 5, 5, -1, 9}
	batch := make([]timestep.Episode, len(returns))
	for i, r := range returns {
		batch[i] = episodeWithReturn(i%2, r)
	}

	filtered, err := Filter(batch, 50)
	if err != nil {
		t.Fatal(err)
	}

	// Each retained episode contributed exactly one step whose
	// observation equals its return
	for _, obs := range filtered.Observations {
		if obs < filtered.Threshold {
			t.Errorf("retained episode with return %v below threshold %v",
				obs, filtered.Threshold)
		}
	}

	retained := 0
	for _, r := range returns {
		if r >= filtered.Threshold {
			retained++
		}
	}
	if retained != len(filtered.Actions) {
		t.Errorf("incorrect number of retained episodes \n\twant(%v) "+
			"\n\thave(%v)", retained, len(filtered.Actions))
	}
}

func TestFilterAllEqualReturns(t *testing.T) {
	batch := make([]timestep.Episode, 6)
	for i := range batch {
		batch[i] = episodeWithReturn(1, 5)
	}

	filtered, err := Filter(batch, 90)
	if err != nil {
		t.Fatal(err)
	}

	if filtered.Threshold != 5 || filtered.Mean != 5 {
		t.Errorf("incorrect statistics for equal returns: threshold %v, "+
			"mean %v", filtered.Threshold, filtered.Mean)
	}
	if len(filtered.Actions) != len(batch) {
		t.Errorf("equal returns should retain every episode, retained %v "+
			"of %v", len(filtered.Actions), len(batch))
	}
}

func TestFilterErrors(t *testing.T) {
	if _, err := Filter(nil, 70); err == nil {
		t.Error("expected error on empty batch")
	}

	batch := []timestep.Episode{episodeWithReturn(0, 1)}
	if _, err := Filter(batch, -1); err == nil {
		t.Error("expected error on negative percentile")
	}
	if _, err := Filter(batch, 101); err == nil {
		t.Error("expected error on percentile above 100")
	}
}
