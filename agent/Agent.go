// Package agent defines the interfaces satisfied by learning agents
package agent

import (
	"github.com/gianfranco98/pipeland/timestep"
)

// Policy determines how an agent selects discrete actions given an
// environmental timestep.
type Policy interface {
	SelectAction(t timestep.TimeStep) (int, error)
}

// EpsilonPolicy is a Policy whose exploration rate can be set and
// retrieved. With probability epsilon the policy selects a uniformly
// random action instead of its preferred one.
type EpsilonPolicy interface {
	Policy
	SetEpsilon(float64)
	Epsilon() float64
}

// Learner implements a learning algorithm that defines how weights
// are updated. Update performs one supervised update treating the
// given actions as labels for the given observations and returns the
// scalar loss. Observations are given in row major order, one row per
// action label.
type Learner interface {
	Update(obs []float64, actions []int) (float64, error)
}

// Trainable is an agent that both selects actions and learns from
// labelled batches. The two capabilities share the same weights: any
// change made by Update is reflected in subsequent action selection.
type Trainable interface {
	Policy
	Learner
}
