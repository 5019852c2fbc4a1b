// Package cem implements the cross-entropy method for discrete action
// spaces: a softmax policy over an MLP that is trained to imitate the
// actions of its own best-performing episodes.
package cem

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"

	env "github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/network"
	"github.com/gianfranco98/pipeland/timestep"
	"github.com/gianfranco98/pipeland/utils/matutils"
)

// SoftmaxMLP selects discrete actions by sampling from the categorical
// distribution given by the softmax of an MLP's action scores. With
// probability epsilon the sampled action is replaced by a uniformly
// random one.
//
// The policy populates a gorgonia ExprGraph with a batch-1 MLP and
// owns the VM that runs it: each call to SelectAction sets the
// network input to the timestep's observation, runs the graph, and
// samples from the resulting scores.
type SoftmaxMLP struct {
	net network.NeuralNet
	vm  G.VM

	epsilon    float64
	numActions int

	rng *rand.Rand
}

// NewSoftmaxMLP creates a new SoftmaxMLP for the action and
// observation spaces of e. The hiddenSizes parameter defines the
// number of nodes in each hidden layer, each followed by a rectified
// linear activation; a final linear layer sized to the action count is
// always added. The init parameter determines the weight
// initialization scheme.
func NewSoftmaxMLP(e env.Environment, hiddenSizes []int, epsilon float64,
	init G.InitWFn, seed uint64) (*SoftmaxMLP, error) {
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("newsoftmaxmlp: softmax policy cannot be " +
			"used with continuous actions")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("newsoftmaxmlp: actions must be enumerated " +
			"starting from 0")
	}

	features := e.ObservationSpec().Shape.Len()
	numActions := e.ActionSpec().NumActions()

	biases := make([]bool, len(hiddenSizes))
	activations := make([]*network.Activation, len(hiddenSizes))
	for i := range hiddenSizes {
		biases[i] = true
		activations[i] = network.ReLU()
	}

	g := G.NewGraph()
	net, err := network.NewMLP(features, 1, numActions, g, hiddenSizes,
		biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newsoftmaxmlp: could not create policy "+
			"network: %v", err)
	}

	return &SoftmaxMLP{
		net:        net,
		vm:         G.NewTapeMachine(g),
		epsilon:    epsilon,
		numActions: numActions,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Network returns the neural network function approximator that the
// policy uses.
func (s *SoftmaxMLP) Network() network.NeuralNet {
	return s.net
}

// SetEpsilon sets the policy's exploration rate
func (s *SoftmaxMLP) SetEpsilon(epsilon float64) {
	s.epsilon = epsilon
}

// Epsilon returns the policy's exploration rate
func (s *SoftmaxMLP) Epsilon() float64 {
	return s.epsilon
}

// SelectAction selects an action for the observation of t. With
// probability epsilon the action is drawn uniformly at random;
// otherwise it is sampled from softmax(scores).
func (s *SoftmaxMLP) SelectAction(t timestep.TimeStep) (int, error) {
	if s.epsilon > 0 && s.rng.Float64() < s.epsilon {
		return s.rng.Intn(s.numActions), nil
	}

	scores, err := s.scores(t)
	if err != nil {
		return 0, fmt.Errorf("selectaction: %v", err)
	}

	dist := distuv.NewCategorical(softmax(scores), s.rng)
	return int(dist.Rand()), nil
}

// scores runs the policy network on the observation of t and returns
// the unnormalized action scores.
func (s *SoftmaxMLP) scores(t timestep.TimeStep) ([]float64, error) {
	obs := matutils.VecData(t.Observation)
	if err := s.net.SetInput(obs); err != nil {
		return nil, fmt.Errorf("could not set network input: %v", err)
	}

	if err := s.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("could not run policy network: %v", err)
	}
	defer s.vm.Reset()

	out := s.net.Output().Data().([]float64)
	scores := make([]float64, len(out))
	copy(scores, out)

	return scores, nil
}

// softmax computes the softmax of scores, shifted by the maximum score
// for numerical stability.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, score := range scores {
		if score > max {
			max = score
		}
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, score := range scores {
		probs[i] = math.Exp(score - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
