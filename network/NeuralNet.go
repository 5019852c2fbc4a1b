// Package network implements neural network function approximators
// as gorgonia computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network whose forward pass has been
// added to a gorgonia ExprGraph. A NeuralNet holds no VM of its own:
// an external VM runs the graph, after which Output() holds the
// predictions for the last inputs given to SetInput().
type NeuralNet interface {
	Graph() *G.ExprGraph

	// CloneWithBatch clones the network onto a fresh graph with a new
	// input batch size, copying the current weight values
	CloneWithBatch(int) (NeuralNet, error)

	BatchSize() int
	Features() int
	Outputs() int

	// SetInput sets the value of the input node before the graph is
	// run. The input is given in row major order and must hold
	// BatchSize() * Features() values.
	SetInput([]float64) error

	// Set copies the weight values of another network of the same
	// architecture into the receiver
	Set(NeuralNet) error

	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Prediction returns the node of the computational graph that
	// stores the network output; Output returns its value after the
	// last VM run.
	Prediction() *G.Node
	Output() G.Value
}
