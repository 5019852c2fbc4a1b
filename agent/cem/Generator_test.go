package cem

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/timestep"
)

// chainEnv is a deterministic environment with a 1-dimensional
// observation equal to the step number, two discrete actions, a reward
// of +1 per step, and a fixed episode length.
type chainEnv struct {
	length  int
	current timestep.TimeStep
}

func newChainEnv(length int) *chainEnv {
	return &chainEnv{length: length}
}

func (c *chainEnv) Reset() (timestep.TimeStep, error) {
	c.current = timestep.New(timestep.First, 0,
		mat.NewVecDense(1, []float64{0}), 0)
	return c.current, nil
}

func (c *chainEnv) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	n := c.current.Number + 1
	t := timestep.New(timestep.Mid, 1, mat.NewVecDense(1,
		[]float64{float64(n)}), n)
	if n >= c.length {
		t.StepType = timestep.Last
	}
	c.current = t
	return t, t.Last(), nil
}

func (c *chainEnv) GetReward(state, action, nextState mat.Vector) float64 {
	return 1
}

func (c *chainEnv) AtGoal(state mat.Matrix) bool {
	return false
}

func (c *chainEnv) CurrentTimeStep() timestep.TimeStep {
	return c.current
}

func (c *chainEnv) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0})
	upperBound := mat.NewVecDense(1, []float64{float64(c.length)})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

func (c *chainEnv) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0})
	upperBound := mat.NewVecDense(1, []float64{1})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

// constPolicy always selects the same action
type constPolicy struct {
	action int
}

func (p constPolicy) SelectAction(t timestep.TimeStep) (int, error) {
	return p.action, nil
}

func TestGeneratorStepCounter(t *testing.T) {
	length := 5
	batchSize := 3

	gen, err := NewGenerator(newChainEnv(length), constPolicy{}, batchSize)
	if err != nil {
		t.Fatal(err)
	}

	for pull := 1; pull <= 2; pull++ {
		batch, err := gen.Next()
		if err != nil {
			t.Fatal(err)
		}

		if len(batch) != batchSize {
			t.Fatalf("incorrect batch size \n\twant(%v) \n\thave(%v)",
				batchSize, len(batch))
		}
		for _, episode := range batch {
			if episode.Len() != length {
				t.Errorf("incorrect episode length \n\twant(%v) "+
					"\n\thave(%v)", length, episode.Len())
			}
			if episode.Return != float64(length) {
				t.Errorf("incorrect episodic return \n\twant(%v) "+
					"\n\thave(%v)", float64(length), episode.Return)
			}
		}

		want := pull * batchSize * length
		if gen.Steps() != want {
			t.Errorf("incorrect step counter after pull %v \n\twant(%v) "+
				"\n\thave(%v)", pull, want, gen.Steps())
		}
	}
}

func TestGeneratorIllegalBatchSize(t *testing.T) {
	if _, err := NewGenerator(newChainEnv(5), constPolicy{}, 0); err == nil {
		t.Error("expected error on batch size 0")
	}
}
