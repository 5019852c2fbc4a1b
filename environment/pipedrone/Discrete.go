package pipedrone

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/timestep"
)

// Available discrete actions
const (
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 3
)

// Discrete exposes the landing environment with four discrete actions:
// do nothing, fire the left thruster, fire the main thruster, and fire
// the right thruster.
type Discrete struct {
	*pipeDrone
}

// NewDiscrete creates a new discrete-action landing environment with
// the given task and resets it to the first timestep of an episode
func NewDiscrete(task pipeDroneTask, seed uint64) (environment.Environment,
	timestep.TimeStep, error) {
	d := newPipeDrone(task, seed)
	env := &Discrete{d}

	step, err := env.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("newdiscrete: %v", err)
	}
	return env, step, nil
}

func (d *Discrete) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

func (d *Discrete) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	a := int(action.AtVec(0))

	switch a {
	case 0:
		// No operation
		return d.pipeDrone.step(0.0, 0.0)
	case 1:
		// Fire left thruster
		return d.pipeDrone.step(0.0, -1.0)
	case 2:
		// Fire main thruster
		return d.pipeDrone.step(1.0, 0.0)
	case 3:
		// Fire right thruster
		return d.pipeDrone.step(0.0, 1.0)
	}
	return timestep.TimeStep{}, false, fmt.Errorf("step: illegal action "+
		"selection, expected action in [0, 1, 2, 3], received action = %v", a)
}
