package tracker

import (
	"path/filepath"
	"testing"
)

func TestLearningSaveLoad(t *testing.T) {
	dir := t.TempDir()

	learning := NewLearning(dir)
	stats := []Stats{
		{Step: 80, Loss: 0.693, RewardThreshold: 28, RewardMean: 25},
		{Step: 160, Loss: 0.512, RewardThreshold: 40, RewardMean: 36},
	}
	for _, s := range stats {
		learning.Track(s)
	}

	if err := learning.Save(); err != nil {
		t.Fatal(err)
	}

	steps, err := LoadSteps(filepath.Join(dir, StepsFile))
	if err != nil {
		t.Fatal(err)
	}
	means, err := LoadData(filepath.Join(dir, MeanFile))
	if err != nil {
		t.Fatal(err)
	}
	thresholds, err := LoadData(filepath.Join(dir, ThresholdFile))
	if err != nil {
		t.Fatal(err)
	}
	losses, err := LoadData(filepath.Join(dir, LossFile))
	if err != nil {
		t.Fatal(err)
	}

	if len(steps) != len(stats) {
		t.Fatalf("incorrect number of recorded steps \n\twant(%v) "+
			"\n\thave(%v)", len(stats), len(steps))
	}
	for i, s := range stats {
		if steps[i] != s.Step {
			t.Errorf("incorrect step key %v \n\twant(%v) \n\thave(%v)", i,
				s.Step, steps[i])
		}
		if losses[i] != s.Loss {
			t.Errorf("incorrect loss %v \n\twant(%v) \n\thave(%v)", i,
				s.Loss, losses[i])
		}
		if thresholds[i] != s.RewardThreshold {
			t.Errorf("incorrect threshold %v \n\twant(%v) \n\thave(%v)", i,
				s.RewardThreshold, thresholds[i])
		}
		if means[i] != s.RewardMean {
			t.Errorf("incorrect mean %v \n\twant(%v) \n\thave(%v)", i,
				s.RewardMean, means[i])
		}
	}
}
