// Package tracker implements Trackers, which record and save the
// scalar time series generated while training
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Stats packages together the scalars produced by one training
// iteration, keyed by the generator's step counter at the time the
// iteration finished.
type Stats struct {
	Step            int
	Loss            float64
	RewardThreshold float64
	RewardMean      float64
}

// Tracker records per-iteration training statistics and saves the
// recorded data after the experiment has finished
type Tracker interface {
	Track(Stats)
	Save() error
}

// LoadData loads and returns a float64 series saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaddata: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64

	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loaddata: could not decode data: %v", err)
	}

	return data, nil
}

// LoadSteps loads and returns the step-counter keys saved by a Tracker
func LoadSteps(filename string) ([]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadsteps: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []int

	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadsteps: could not decode data: %v", err)
	}

	return data, nil
}
