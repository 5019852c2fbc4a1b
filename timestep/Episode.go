package timestep

import (
	"gonum.org/v1/gonum/mat"
)

// EpisodeStep records a single observation together with the discrete
// action that was selected in it. EpisodeSteps are created during
// action sampling and consumed when a batch of episodes is filtered
// for training; they hold no other state.
type EpisodeStep struct {
	Observation mat.Vector
	Action      int
}

// Episode is one full run from environment reset to termination,
// holding the undiscounted episodic return and the ordered
// observation/action trace.
type Episode struct {
	Return float64
	Steps  []EpisodeStep
}

// Add appends a frame of experience and accumulates its reward.
func (e *Episode) Add(obs mat.Vector, action int, reward float64) {
	e.Steps = append(e.Steps, EpisodeStep{Observation: obs, Action: action})
	e.Return += reward
}

// Len returns the number of steps recorded in the episode
func (e *Episode) Len() int {
	return len(e.Steps)
}
