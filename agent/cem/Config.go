package cem

import (
	"fmt"

	"github.com/gianfranco98/pipeland/initwfn"
	"github.com/gianfranco98/pipeland/solver"
)

// Config describes a configuration of the cross-entropy agent. Configs
// are JSON serializable so that experiments can be described by
// configuration files.
type Config struct {
	// PolicyLayers is the size of each hidden layer of the policy
	// network. Hidden layers use rectified linear activations; a
	// final linear layer sized to the action count is always added.
	PolicyLayers []int

	// Epsilon is the probability of selecting a uniformly random
	// action instead of sampling from the policy's softmax
	// distribution.
	Epsilon float64

	// InitWFn determines the weight initialization scheme of the
	// policy network.
	InitWFn *initwfn.InitWFn

	// Solver adapts the policy network weights on each Update.
	Solver *solver.Solver
}

// NewConfig returns a Config with a single rectified linear hidden
// layer of the given width, Glorot weight initialization, and an Adam
// solver with default hyperparameters.
func NewConfig(hidden int, epsilon, learningRate float64) (Config, error) {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("newconfig: could not create weight "+
			"initializer: %v", err)
	}

	sol, err := solver.NewDefaultAdam(learningRate, 1)
	if err != nil {
		return Config{}, fmt.Errorf("newconfig: could not create solver: %v",
			err)
	}

	return Config{
		PolicyLayers: []int{hidden},
		Epsilon:      epsilon,
		InitWFn:      init,
		Solver:       sol,
	}, nil
}

// Validate ensures that the Config is valid, returning an error if it
// is not
func (c Config) Validate() error {
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1], got %v",
			c.Epsilon)
	}
	for i, size := range c.PolicyLayers {
		if size <= 0 {
			return fmt.Errorf("validate: hidden layer %d has illegal size %d",
				i, size)
		}
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	return nil
}
