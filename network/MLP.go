package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with one output node per
// value that should be predicted.
type mlp struct {
	g          *G.ExprGraph
	layers     []Layer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// number of output nodes equal to outputs. The graph g is populated
// with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// linear layer with a bias unit and no activation is always added so
// that, given any input, the network predicts outputs values. For
// index i, hiddenSizes[i] is the number of nodes in hidden layer i;
// biases[i] is true if hidden layer i contains a bias unit; and
// activations[i] is the activation function of hidden layer i. The
// init parameter determines the weight initialization scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation) (NeuralNet,
	error) {
	// Ensure one activation and one bias bool per hidden layer
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newmlp: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newmlp: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	return newMLPFromInput(input, outputs, g, hiddenSizes, biases, init,
		activations)
}

// newMLPFromInput returns a new MLP that has a specific node as its
// input node.
func newMLPFromInput(input *G.Node, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if !input.IsMatrix() {
		return nil, fmt.Errorf("newmlpfrominput: input must be a matrix")
	}

	batch := input.Shape()[0]
	features := input.Shape()[1]

	// Add the final linear layer so that output heads are always
	// predicted by the network
	sizes := append([]int{}, hiddenSizes...)
	sizes = append(sizes, outputs)
	layerBiases := append([]bool{}, biases...)
	layerBiases = append(layerBiases, true)
	layerActivations := append([]*Activation{}, activations...)
	layerActivations = append(layerActivations, Identity())

	layers := newFCLayers(g, sizes, layerBiases, layerActivations, init,
		features)

	network := mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}
	if _, err := network.fwd(input); err != nil {
		return &mlp{}, fmt.Errorf("newmlp: could not compute forward "+
			"pass: %v", err)
	}

	return &network, nil
}

// Graph returns the computational graph of the mlp
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// CloneWithBatch clones an mlp onto a fresh graph with a new input
// batch size. Weight values are copied.
func (e *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()

	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Copy fully connected layers, cloning weight values to the new
	// graph
	layers := make([]Layer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].CloneTo(graph)
	}

	network := mlp{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  e.numOutputs,
		numInputs:   e.numInputs,
		batchSize:   batchSize,
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if _, err := network.fwd(input); err != nil {
		return &mlp{}, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the batch size of inputs to the network
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single observation
// vector that the network takes as input.
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of outputs from the network
func (e *mlp) Outputs() int {
	return e.numOutputs
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of an mlp to be equal to the weights of another
// mlp
func (dest *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: network architectures differ\n\twant(%d "+
			"learnables)\n\thave(%d)", len(nodes), len(sourceNodes))
	}
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in an mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(e.layers))
		for i := range e.layers {
			learnables = append(learnables, e.layers[i].Weights())
			if bias := e.layers[i].Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
		e.learnables = G.Nodes(learnables)
	}
	return e.learnables
}

// Model returns the learnable nodes with their gradients.
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		model := make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			model = append(model, node)
		}
		e.model = model
	}
	return e.model
}

// fwd performs the forward pass of the mlp on the input node
func (e *mlp) fwd(input *G.Node) (*G.Node, error) {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, fmt.Errorf("fwd: could not compute forward pass "+
				"of layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// Output returns the value of the mlp's output after the last VM run
func (e *mlp) Output() G.Value {
	return e.predVal
}
