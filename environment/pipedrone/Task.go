package pipedrone

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/timestep"
)

// pipeDroneTask is a Task that computes its rewards from the physics
// state of a pipeDrone environment
type pipeDroneTask interface {
	environment.Task
	environment.Starter
	environment.Ender
	registerEnv(*pipeDrone)
	reset()
}

// Land implements the task of setting the drone down gently on top of
// the pipe. The reward is the change in a shaping potential that draws
// the drone toward the pipe top with low velocity and a level heading,
// minus a fuel cost per thruster firing. Crashing yields -100 on the
// final step; a gentle touch-down yields +100.
type Land struct {
	environment.Starter
	stepLimit environment.Ender

	prevShaping *float64

	env *pipeDrone
}

// NewLand returns a new Land task. Starting states are drawn from s
// and episodes are cut off after cutoff steps.
func NewLand(s environment.Starter, cutoff int) pipeDroneTask {
	stepLimit := environment.NewStepLimit(cutoff)

	return &Land{Starter: s, stepLimit: stepLimit, prevShaping: nil}
}

// NewDefaultLand returns a Land task with the default hovering start
// position and disturbance force
func NewDefaultLand(cutoff int, seed uint64) pipeDroneTask {
	s := environment.NewUniformStarter([]r1.Interval{
		{Min: InitialX, Max: InitialX},
		{Min: InitialY, Max: InitialY},
		{Min: InitialRandom, Max: InitialRandom},
	}, seed)
	return NewLand(s, cutoff)
}

func (l *Land) registerEnv(env *pipeDrone) {
	l.env = env
}

// reset clears the shaping potential at the start of each episode
func (l *Land) reset() {
	l.prevShaping = nil
}

// AtGoal returns whether the drone has landed on the pipe
func (l *Land) AtGoal(state mat.Matrix) bool {
	return l.env.Landed()
}

// GetReward computes the reward of transitioning to nextState. Only
// the next state is inspected; the previous state enters through the
// shaping potential retained from the last call.
func (l *Land) GetReward(state, action, nextState mat.Vector) float64 {
	s := make([]float64, nextState.Len())
	for i := range s {
		s[i] = nextState.AtVec(i)
	}

	reward := 0.0
	shaping := (-100 * math.Sqrt(s[0]*s[0]+s[1]*s[1])) +
		(-100 * math.Sqrt(s[2]*s[2]+s[3]*s[3])) +
		(-100 * math.Abs(s[4]))

	if l.prevShaping != nil {
		reward = shaping - *l.prevShaping
	}
	l.prevShaping = &shaping

	// Less fuel spent is better
	reward -= (l.env.MPower() * 0.30)
	reward -= (l.env.SPower() * 0.03)

	if l.env.Crashed() || math.Abs(s[0]) >= 1.0 {
		reward = -100
	} else if l.env.Landed() {
		reward = 100
	}
	return reward
}

// End ends the episode on a crash, a landing, flight out of bounds, or
// the step limit
func (l *Land) End(t *timestep.TimeStep) bool {
	if l.env.Crashed() || l.env.Landed() ||
		math.Abs(t.Observation.AtVec(0)) >= 1.0 {
		t.StepType = timestep.Last
		return true
	}
	return l.stepLimit.End(t)
}
