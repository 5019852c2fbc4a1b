// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
}

// Ender determines when an episode ends. If the episode should end,
// End modifies the timestep so that its StepType field is
// timestep.Last and returns true.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Environment implements an episodic environment, which includes a
// Task to complete.
//
// Reset starts a new episode and returns its first timestep. Step
// applies a single action and returns the resulting timestep together
// with a flag indicating whether the episode has ended. Communication
// with any external simulator is synchronous: Step blocks until a
// state transition is available.
type Environment interface {
	Task
	Reset() (timestep.TimeStep, error)
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpec() Spec
	CurrentTimeStep() timestep.TimeStep
}
