package cem

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	env "github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/timestep"
)

// CrossEntropy implements the learning half of the cross-entropy
// method. Action selection is delegated to a SoftmaxMLP behaviour
// policy; Update performs one supervised step of cross-entropy
// minimization, treating the actions of elite episodes as labels for
// their observations.
//
// Because the number of elite steps varies between batches and
// gorgonia graphs have static shapes, each Update clones the policy
// network onto a fresh graph sized to the batch, runs one solver step
// there, and copies the adapted weights back into the behaviour
// policy. The solver persists across updates: the learnable shapes
// never change, so its per-parameter state carries over.
type CrossEntropy struct {
	policy *SoftmaxMLP
	solver G.Solver

	features   int
	numActions int
}

// New creates and returns a new CrossEntropy agent acting in the
// action and observation spaces of e.
func New(e env.Environment, config Config, seed uint64) (*CrossEntropy,
	error) {
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("cem: cannot use non-discrete actions")
	}
	if e.ActionSpec().Shape.Len() > 1 {
		return nil, fmt.Errorf("cem: actions must be 1-dimensional")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("cem: %v", err)
	}

	policy, err := NewSoftmaxMLP(e, config.PolicyLayers, config.Epsilon,
		config.InitWFn.InitWFn(), seed)
	if err != nil {
		return nil, fmt.Errorf("cem: %v", err)
	}

	return &CrossEntropy{
		policy:     policy,
		solver:     config.Solver,
		features:   e.ObservationSpec().Shape.Len(),
		numActions: e.ActionSpec().NumActions(),
	}, nil
}

// SelectAction selects an action with the behaviour policy
func (c *CrossEntropy) SelectAction(t timestep.TimeStep) (int, error) {
	return c.policy.SelectAction(t)
}

// SetEpsilon sets the exploration rate of the behaviour policy
func (c *CrossEntropy) SetEpsilon(epsilon float64) {
	c.policy.SetEpsilon(epsilon)
}

// Epsilon returns the exploration rate of the behaviour policy
func (c *CrossEntropy) Epsilon() float64 {
	return c.policy.Epsilon()
}

// Policy returns the behaviour policy whose weights the agent adapts
func (c *CrossEntropy) Policy() *SoftmaxMLP {
	return c.policy
}

// Update performs one supervised update on the observations and action
// labels of a filtered batch and returns the cross-entropy loss.
// Observations are given in row major order, one row per action label.
// An empty batch is an error: updating on no elite episodes is
// undefined.
func (c *CrossEntropy) Update(obs []float64, actions []int) (float64, error) {
	n := len(actions)
	if n == 0 {
		return 0, fmt.Errorf("update: empty elite batch")
	}
	if len(obs) != n*c.features {
		return 0, fmt.Errorf("update: invalid number of observation "+
			"features\n\twant(%v)\n\thave(%v)", n*c.features, len(obs))
	}

	// Clone the policy network at the batch size and build the
	// cross-entropy loss on its graph
	trainNet, err := c.policy.Network().CloneWithBatch(n)
	if err != nil {
		return 0, fmt.Errorf("update: could not clone policy network: %v",
			err)
	}
	g := trainNet.Graph()
	scores := trainNet.Prediction()

	// One-hot action labels select the score of the labelled action
	// in each row
	labels := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(n, c.numActions),
		G.WithName("actionLabels"),
	)
	selected := G.Must(G.HadamardProd(scores, labels))
	selected = G.Must(G.Sum(selected, 1))

	// Cross-entropy against the softmax of the scores:
	// mean(logSumExp(scores) - score[label])
	losses := G.Must(G.Sub(logSumExp(scores, 1), selected))
	cost := G.Must(G.Mean(losses))

	var lossVal G.Value
	G.Read(cost, &lossVal)

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return 0, fmt.Errorf("update: could not compute gradient: %v", err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(trainNet.Learnables()...))
	defer vm.Close()

	oneHot := make([]float64, n*c.numActions)
	for i, action := range actions {
		if action < 0 || action >= c.numActions {
			return 0, fmt.Errorf("update: illegal action label %v not in "+
				"[0, %v)", action, c.numActions)
		}
		oneHot[i*c.numActions+action] = 1.0
	}
	labelTensor := tensor.New(
		tensor.WithShape(n, c.numActions),
		tensor.WithBacking(oneHot),
	)
	if err := G.Let(labels, labelTensor); err != nil {
		return 0, fmt.Errorf("update: could not set action labels: %v", err)
	}

	if err := trainNet.SetInput(obs); err != nil {
		return 0, fmt.Errorf("update: could not set observations: %v", err)
	}

	if err := vm.RunAll(); err != nil {
		return 0, fmt.Errorf("update: could not run training graph: %v", err)
	}
	if err := c.solver.Step(trainNet.Model()); err != nil {
		return 0, fmt.Errorf("update: could not step solver: %v", err)
	}
	vm.Reset()

	// Reflect the adapted weights in the behaviour policy
	if err := c.policy.Network().Set(trainNet); err != nil {
		return 0, fmt.Errorf("update: could not copy weights back to "+
			"behaviour policy: %v", err)
	}

	return lossVal.Data().(float64), nil
}

// logSumExp computes log(sum(exp(scores))) along the given axis,
// shifted by the maximum score for numerical stability.
func logSumExp(scores *G.Node, along int) *G.Node {
	max := G.Must(G.Max(scores, along))

	exponent := G.Must(G.BroadcastSub(scores, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}
