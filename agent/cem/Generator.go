package cem

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/agent"
	env "github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/timestep"
)

// Generator produces an unbounded sequence of fixed-size batches of
// completed episodes, one batch per call to Next. The generator never
// terminates on its own; the caller controls iteration.
//
// All state is carried explicitly between pulls: the episode being
// accumulated, the batch collected so far, and the last environmental
// timestep. The generator owns the step counter, which it increments
// on every environment step; the counter keys logged metrics and plays
// no part in learning.
type Generator struct {
	env       env.Environment
	policy    agent.Policy
	batchSize int

	steps    int
	current  timestep.Episode
	batch    []timestep.Episode
	lastStep timestep.TimeStep
}

// NewGenerator returns a new Generator producing batches of batchSize
// completed episodes of e under policy p. The environment is reset
// once to obtain the first observation.
func NewGenerator(e env.Environment, p agent.Policy,
	batchSize int) (*Generator, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("newgenerator: illegal batch size %v",
			batchSize)
	}

	first, err := e.Reset()
	if err != nil {
		return nil, fmt.Errorf("newgenerator: could not reset "+
			"environment: %v", err)
	}

	return &Generator{
		env:       e,
		policy:    p,
		batchSize: batchSize,
		batch:     make([]timestep.Episode, 0, batchSize),
		lastStep:  first,
	}, nil
}

// Steps returns the total number of environment steps taken by the
// generator so far
func (g *Generator) Steps() int {
	return g.steps
}

// Next generates episodes until the batch size is reached and returns
// the batch. Each episode in the returned batch was generated with the
// policy weights as they were when Next was called: generation and
// learning strictly alternate.
func (g *Generator) Next() ([]timestep.Episode, error) {
	for len(g.batch) < g.batchSize {
		obs := g.lastStep.Observation

		action, err := g.policy.SelectAction(g.lastStep)
		if err != nil {
			return nil, fmt.Errorf("next: could not select action: %v", err)
		}

		step, done, err := g.env.Step(mat.NewVecDense(1,
			[]float64{float64(action)}))
		if err != nil {
			return nil, fmt.Errorf("next: could not step environment: %v",
				err)
		}
		g.steps++

		g.current.Add(obs, action, step.Reward)
		g.lastStep = step

		if done {
			g.batch = append(g.batch, g.current)
			g.current = timestep.Episode{}

			g.lastStep, err = g.env.Reset()
			if err != nil {
				return nil, fmt.Errorf("next: could not reset "+
					"environment: %v", err)
			}
		}
	}

	batch := g.batch
	g.batch = make([]timestep.Episode, 0, g.batchSize)
	return batch, nil
}
