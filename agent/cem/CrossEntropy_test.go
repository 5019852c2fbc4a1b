package cem

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// setLinearPolicy sets the weights of a policy with no hidden layers
// so that its action scores equal the given bias vector for any input
func setLinearPolicy(t *testing.T, policy *SoftmaxMLP, scores []float64) {
	t.Helper()

	features := policy.Network().Features()
	outputs := policy.Network().Outputs()

	for _, node := range policy.Network().Learnables() {
		var err error
		switch node.Name() {
		case "L0W":
			err = G.Let(node, tensor.New(
				tensor.WithShape(features, outputs),
				tensor.WithBacking(make([]float64, features*outputs)),
			))
		case "L0B":
			err = G.Let(node, tensor.New(
				tensor.WithShape(outputs),
				tensor.WithBacking(scores),
			))
		default:
			t.Fatalf("unexpected learnable %v", node.Name())
		}
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestSoftmaxMLPGreedy(t *testing.T) {
	e := newChainEnv(5)
	first, err := e.Reset()
	if err != nil {
		t.Fatal(err)
	}

	policy, err := NewSoftmaxMLP(e, nil, 0.0, G.Zeroes(), 14)
	if err != nil {
		t.Fatal(err)
	}

	// A score gap of 50 makes the softmax one-hot to within 1e-20
	setLinearPolicy(t, policy, []float64{0, 50})

	for i := 0; i < 100; i++ {
		action, err := policy.SelectAction(first)
		if err != nil {
			t.Fatal(err)
		}
		if action != 1 {
			t.Fatalf("expected the dominant action 1, got %v", action)
		}
	}
}

func TestSoftmaxMLPUniformExploration(t *testing.T) {
	e := newChainEnv(5)
	first, err := e.Reset()
	if err != nil {
		t.Fatal(err)
	}

	policy, err := NewSoftmaxMLP(e, nil, 1.0, G.Zeroes(), 14)
	if err != nil {
		t.Fatal(err)
	}
	setLinearPolicy(t, policy, []float64{0, 50})

	samples := 4000
	counts := make([]int, 2)
	for i := 0; i < samples; i++ {
		action, err := policy.SelectAction(first)
		if err != nil {
			t.Fatal(err)
		}
		counts[action]++
	}

	for action, count := range counts {
		freq := float64(count) / float64(samples)
		if math.Abs(freq-0.5) > 0.05 {
			t.Errorf("action %v frequency %v too far from uniform", action,
				freq)
		}
	}
}

func TestCrossEntropyOneBatch(t *testing.T) {
	e := newChainEnv(5)

	config, err := NewConfig(8, 0.0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	agent, err := New(e, config, 14)
	if err != nil {
		t.Fatal(err)
	}

	gen, err := NewGenerator(e, agent, 10)
	if err != nil {
		t.Fatal(err)
	}
	batch, err := gen.Next()
	if err != nil {
		t.Fatal(err)
	}

	elite, err := Filter(batch, 70)
	if err != nil {
		t.Fatal(err)
	}

	// Every episode earns exactly +1 per step for 5 steps, so the
	// returns are all identical
	if elite.Mean != 5.0 {
		t.Errorf("incorrect mean reward \n\twant(%v) \n\thave(%v)", 5.0,
			elite.Mean)
	}
	if elite.Threshold != 5.0 {
		t.Errorf("incorrect reward threshold \n\twant(%v) \n\thave(%v)",
			5.0, elite.Threshold)
	}
	if len(elite.Actions) != 50 {
		t.Fatalf("incorrect number of elite steps \n\twant(%v) "+
			"\n\thave(%v)", 50, len(elite.Actions))
	}

	loss, err := agent.Update(elite.Observations, elite.Actions)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Errorf("loss is not finite: %v", loss)
	}
}

func TestCrossEntropyUpdateErrors(t *testing.T) {
	e := newChainEnv(5)

	config, err := NewConfig(8, 0.0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	agent, err := New(e, config, 14)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := agent.Update(nil, nil); err == nil {
		t.Error("expected error on empty elite batch")
	}
	if _, err := agent.Update([]float64{1, 2}, []int{0}); err == nil {
		t.Error("expected error on mismatched observation length")
	}
	if _, err := agent.Update([]float64{1}, []int{7}); err == nil {
		t.Error("expected error on out of range action label")
	}
}

// TestCrossEntropySnapshotInvariant checks that generation and
// learning strictly alternate: a batch pulled after an update is
// produced by the updated policy, while the batch itself was produced
// by a single policy snapshot. With a deterministic environment and a
// dominant action score this reduces to all episodes in one batch
// being identical.
func TestCrossEntropySnapshotInvariant(t *testing.T) {
	e := newChainEnv(3)

	policy, err := NewSoftmaxMLP(e, nil, 0.0, G.Zeroes(), 14)
	if err != nil {
		t.Fatal(err)
	}
	setLinearPolicy(t, policy, []float64{50, 0})

	gen, err := NewGenerator(e, policy, 4)
	if err != nil {
		t.Fatal(err)
	}
	batch, err := gen.Next()
	if err != nil {
		t.Fatal(err)
	}

	for _, episode := range batch {
		for _, step := range episode.Steps {
			if step.Action != 0 {
				t.Errorf("expected the dominant action 0, got %v",
					step.Action)
			}
		}
	}
}
