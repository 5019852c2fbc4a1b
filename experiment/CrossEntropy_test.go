package experiment

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/agent/cem"
	"github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/experiment/tracker"
	"github.com/gianfranco98/pipeland/timestep"
)

// rewardEnv is a deterministic environment paying +1 per step with a
// fixed episode length
type rewardEnv struct {
	length  int
	current timestep.TimeStep
}

func (r *rewardEnv) Reset() (timestep.TimeStep, error) {
	r.current = timestep.New(timestep.First, 0,
		mat.NewVecDense(1, []float64{0}), 0)
	return r.current, nil
}

func (r *rewardEnv) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	n := r.current.Number + 1
	t := timestep.New(timestep.Mid, 1, mat.NewVecDense(1,
		[]float64{float64(n)}), n)
	if n >= r.length {
		t.StepType = timestep.Last
	}
	r.current = t
	return t, t.Last(), nil
}

func (r *rewardEnv) GetReward(state, action, nextState mat.Vector) float64 {
	return 1
}

func (r *rewardEnv) AtGoal(state mat.Matrix) bool {
	return false
}

func (r *rewardEnv) CurrentTimeStep() timestep.TimeStep {
	return r.current
}

func (r *rewardEnv) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0})
	upperBound := mat.NewVecDense(1, []float64{float64(r.length)})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

func (r *rewardEnv) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{0})
	upperBound := mat.NewVecDense(1, []float64{1})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

// nopPolicy always selects action 0
type nopPolicy struct{}

func (nopPolicy) SelectAction(t timestep.TimeStep) (int, error) {
	return 0, nil
}

// countingLearner counts its updates and reports a constant loss
type countingLearner struct {
	updates int
}

func (c *countingLearner) Update(obs []float64, actions []int) (float64,
	error) {
	c.updates++
	return 0.1, nil
}

// memoryTracker records tracked statistics in memory
type memoryTracker struct {
	stats []tracker.Stats
	saved bool
}

func (m *memoryTracker) Track(s tracker.Stats) {
	m.stats = append(m.stats, s)
}

func (m *memoryTracker) Save() error {
	m.saved = true
	return nil
}

func newTestExperiment(t *testing.T, solvedAt float64, maxBatches int,
	stop <-chan struct{}) (*CrossEntropy, *countingLearner, *memoryTracker) {
	t.Helper()

	gen, err := cem.NewGenerator(&rewardEnv{length: 4}, nopPolicy{}, 2)
	if err != nil {
		t.Fatal(err)
	}

	learner := &countingLearner{}
	recorded := &memoryTracker{}
	exp, err := NewCrossEntropy(gen, learner, 50, solvedAt, maxBatches,
		stop, recorded)
	if err != nil {
		t.Fatal(err)
	}
	return exp, learner, recorded
}

func TestCrossEntropyStopsWhenSolved(t *testing.T) {
	// Every episode returns exactly 4, so the first batch already
	// reaches the solved threshold
	exp, learner, recorded := newTestExperiment(t, 4.0, 0, nil)

	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	if learner.updates != 1 {
		t.Errorf("incorrect number of updates \n\twant(%v) \n\thave(%v)",
			1, learner.updates)
	}
	if len(recorded.stats) != 1 {
		t.Fatalf("incorrect number of tracked iterations \n\twant(%v) "+
			"\n\thave(%v)", 1, len(recorded.stats))
	}

	stats := recorded.stats[0]
	if stats.Step != 8 {
		t.Errorf("incorrect step key \n\twant(%v) \n\thave(%v)", 8,
			stats.Step)
	}
	if stats.RewardMean != 4.0 || stats.RewardThreshold != 4.0 {
		t.Errorf("incorrect batch statistics: mean %v, threshold %v",
			stats.RewardMean, stats.RewardThreshold)
	}

	if err := exp.Save(); err != nil {
		t.Fatal(err)
	}
	if !recorded.saved {
		t.Error("save did not reach the registered tracker")
	}
}

func TestCrossEntropyBatchBudget(t *testing.T) {
	exp, learner, recorded := newTestExperiment(t, 1e9, 3, nil)

	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}

	if learner.updates != 3 {
		t.Errorf("incorrect number of updates \n\twant(%v) \n\thave(%v)",
			3, learner.updates)
	}
	if len(recorded.stats) != 3 {
		t.Errorf("incorrect number of tracked iterations \n\twant(%v) "+
			"\n\thave(%v)", 3, len(recorded.stats))
	}
}

func TestCrossEntropyInterrupt(t *testing.T) {
	stop := make(chan struct{})
	close(stop)

	exp, learner, _ := newTestExperiment(t, 1e9, 0, stop)

	if err := exp.Run(); err != nil {
		t.Fatal(err)
	}
	if learner.updates != 0 {
		t.Errorf("interrupted run performed %v updates", learner.updates)
	}
}

func TestCrossEntropyInvalidArguments(t *testing.T) {
	gen, err := cem.NewGenerator(&rewardEnv{length: 4}, nopPolicy{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	learner := &countingLearner{}

	if _, err := NewCrossEntropy(nil, learner, 50, 1, 0, nil); err == nil {
		t.Error("expected error on nil generator")
	}
	if _, err := NewCrossEntropy(gen, nil, 50, 1, 0, nil); err == nil {
		t.Error("expected error on nil learner")
	}
	if _, err := NewCrossEntropy(gen, learner, 101, 1, 0, nil); err == nil {
		t.Error("expected error on illegal percentile")
	}
	if _, err := NewCrossEntropy(gen, learner, 50, 1, -1, nil); err == nil {
		t.Error("expected error on negative batch budget")
	}
}
