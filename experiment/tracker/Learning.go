package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Series file names written by the Learning tracker
const (
	StepsFile     string = "steps.bin"
	LossFile      string = "loss.bin"
	ThresholdFile string = "threshold.bin"
	MeanFile      string = "mean.bin"
)

// Learning tracks the learning curve of an experiment: the training
// loss, the elite reward threshold, and the mean batch reward, each
// keyed by the step counter. Save writes one gob-encoded file per
// series into the tracker's metrics directory.
type Learning struct {
	dir string

	steps      []int
	losses     []float64
	thresholds []float64
	means      []float64
}

// NewLearning creates and returns a new *Learning Tracker saving its
// series into dir
func NewLearning(dir string) *Learning {
	return &Learning{dir: dir}
}

// Track records the statistics of one training iteration
func (l *Learning) Track(s Stats) {
	l.steps = append(l.steps, s.Step)
	l.losses = append(l.losses, s.Loss)
	l.thresholds = append(l.thresholds, s.RewardThreshold)
	l.means = append(l.means, s.RewardMean)
}

// Save saves the data tracked by the Learning Tracker to disk
func (l *Learning) Save() error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("save: could not create metrics directory: %v", err)
	}

	if err := l.encode(StepsFile, l.steps); err != nil {
		return err
	}
	if err := l.encode(LossFile, l.losses); err != nil {
		return err
	}
	if err := l.encode(ThresholdFile, l.thresholds); err != nil {
		return err
	}
	return l.encode(MeanFile, l.means)
}

// encode gob-encodes a single series into the metrics directory
func (l *Learning) encode(name string, data interface{}) error {
	file, err := os.Create(filepath.Join(l.dir, name))
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(data); err != nil {
		return fmt.Errorf("save: could not encode %v: %v", name, err)
	}
	return nil
}
