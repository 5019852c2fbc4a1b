// Package experiment implements functionality for running an
// experiment: repeatedly generating batches of episodes, adapting an
// agent on them, and recording the resulting learning curve.
package experiment

import "github.com/gianfranco98/pipeland/experiment/tracker"

// Experiment runs a training loop to completion and saves the data
// recorded along the way
type Experiment interface {
	// Run runs the experiment until its stopping condition is met
	Run() error

	// Save saves all the data recorded by the experiment's Trackers
	Save() error

	// Register registers a tracker.Tracker with the Experiment so that
	// data generated during the experiment can be tracked and saved
	Register(tracker.Tracker)
}
