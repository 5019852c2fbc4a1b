// Package gym exposes externally registered Gym environments through
// the environment.Environment interface. The drone landing rig runs as
// a Python Gym environment on top of ROS and Gazebo; this package
// reaches it through the Go bindings for Gym, found at
// https://github.com/samuelfneumann/GoGym.
//
// The environment's dynamics and reward live on the Python side, so a
// GymEnv has no Task of its own: reward and termination arrive with
// each step.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/gianfranco98/pipeland/environment"
	ts "github.com/gianfranco98/pipeland/timestep"
)

// DroneLand is the registered name of the pipe landing environment
const DroneLand string = "DroneLand-v0"

// GymEnv implements access to a Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
}

// New returns a new GymEnv with the given name, which must be the name
// of an environment registered with Gym on the Python side.
func New(name string, seed uint64) (env.Environment, ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}

	goGymEnv.Seed(int(seed))
	obs, err := goGymEnv.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not reset "+
			"environment: %v", err)
	}

	gymEnv := &GymEnv{Environment: goGymEnv}

	t := ts.New(ts.First, 0, obs, 0)
	gymEnv.currentStep = t

	return gymEnv, t, nil
}

// Step takes a single environmental step. The call blocks until the
// simulator has produced the resulting state transition.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"gym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, obs, g.CurrentTimeStep().Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	space := g.ObservationSpace()

	var low, high, shape *mat.VecDense
	switch space.(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		low = space.Low()[0]
		high = space.High()[0]
		shape = mat.NewVecDense(low.Len(), nil)
	default:
		panic("observationSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}

	return env.NewSpec(shape, env.Observation, low, high, env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	space := g.ActionSpace()

	var low, high, shape *mat.VecDense
	var cardinality env.Cardinality
	switch space.(type) {
	case *gogym.DiscreteSpace:
		low = space.Low()[0]
		high = space.High()[0]
		shape = mat.NewVecDense(low.Len(), nil)
		cardinality = env.Discrete
	case *gogym.BoxSpace:
		low = space.Low()[0]
		high = space.High()[0]
		shape = mat.NewVecDense(low.Len(), nil)
		cardinality = env.Continuous
	default:
		panic("actionSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace or DiscreteSpace")
	}

	return env.NewSpec(shape, env.Action, low, high, cardinality)
}

// GetReward implements the environment.Task interface. Rewards are
// computed by the external environment, so this function panics.
func (g *GymEnv) GetReward(_, _, _ mat.Vector) float64 {
	panic("getReward: cannot calculate reward for transition in GymEnv")
}

// AtGoal implements the environment.Task interface. Goal checking is
// performed by the external environment, so this function panics.
func (g *GymEnv) AtGoal(mat.Matrix) bool {
	panic("atGoal: cannot calculate at goal for GymEnv")
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
