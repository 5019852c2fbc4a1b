package pipedrone

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/timestep"
)

// runEpisode steps the environment with a fixed cyclic action sequence
// until the episode ends or limit steps have been taken, returning the
// observation trace
func runEpisode(t *testing.T, seed uint64, limit int) []timestep.TimeStep {
	t.Helper()

	task := NewDefaultLand(limit, seed)
	env, first, err := NewDiscrete(task, seed)
	if err != nil {
		t.Fatal(err)
	}

	trace := []timestep.TimeStep{first}
	actions := []float64{2, 1, 2, 3}
	for i := 0; i < limit; i++ {
		action := mat.NewVecDense(1, []float64{actions[i%len(actions)]})
		step, done, err := env.Step(action)
		if err != nil {
			t.Fatal(err)
		}
		trace = append(trace, step)
		if done {
			break
		}
	}
	return trace
}

func TestDiscreteDeterminism(t *testing.T) {
	first := runEpisode(t, 42, 200)
	second := runEpisode(t, 42, 200)

	if len(first) != len(second) {
		t.Fatalf("episode lengths differ under the same seed: %v and %v",
			len(first), len(second))
	}

	for i := range first {
		a := first[i].Observation
		b := second[i].Observation
		for j := 0; j < a.Len(); j++ {
			if a.AtVec(j) != b.AtVec(j) {
				t.Fatalf("observations differ at step %v feature %v: "+
					"%v and %v", i, j, a.AtVec(j), b.AtVec(j))
			}
		}
	}
}

func TestEpisodeTerminates(t *testing.T) {
	limit := 1000

	task := NewDefaultLand(limit, 42)
	env, _, err := NewDiscrete(task, 42)
	if err != nil {
		t.Fatal(err)
	}

	// With the thrusters off the drone falls until it hits something
	nop := mat.NewVecDense(1, []float64{0})
	for i := 0; i < limit; i++ {
		step, done, err := env.Step(nop)
		if err != nil {
			t.Fatal(err)
		}
		if done {
			if !step.Last() {
				t.Error("done flag set without a Last step type")
			}
			return
		}
	}
	t.Errorf("episode did not terminate within %v steps", limit)
}

func TestObservationShape(t *testing.T) {
	task := NewDefaultLand(100, 1)
	env, first, err := NewDiscrete(task, 1)
	if err != nil {
		t.Fatal(err)
	}

	if first.Observation.Len() != StateObservations {
		t.Errorf("incorrect observation length \n\twant(%v) \n\thave(%v)",
			StateObservations, first.Observation.Len())
	}
	if env.ActionSpec().NumActions() != 4 {
		t.Errorf("incorrect action count \n\twant(%v) \n\thave(%v)", 4,
			env.ActionSpec().NumActions())
	}
}

func TestIllegalAction(t *testing.T) {
	task := NewDefaultLand(100, 1)
	env, _, err := NewDiscrete(task, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := env.Step(mat.NewVecDense(1, []float64{4})); err == nil {
		t.Error("expected error on illegal action")
	}
}
