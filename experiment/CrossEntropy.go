package experiment

import (
	"fmt"

	"github.com/gianfranco98/pipeland/agent"
	"github.com/gianfranco98/pipeland/agent/cem"
	"github.com/gianfranco98/pipeland/experiment/tracker"
	"github.com/gianfranco98/pipeland/utils/progressbar"
)

// CrossEntropy is an Experiment that trains an agent with the
// cross-entropy method. Each iteration pulls one batch of episodes
// from a Generator, filters the batch down to its elite episodes, and
// performs one supervised update on them.
//
// The experiment stops when the mean batch return reaches the solved
// threshold, when the batch budget is exhausted, or when a value is
// received on the stop channel.
type CrossEntropy struct {
	gen     *cem.Generator
	learner agent.Learner

	percentile float64
	solvedAt   float64

	// maxBatches bounds the number of training iterations. A value of
	// 0 leaves the experiment unbounded: it then stops only on solving
	// the task or on the stop channel.
	maxBatches int

	stop     <-chan struct{}
	trackers []tracker.Tracker
	status   *progressbar.Status
}

// NewCrossEntropy creates and returns a new cross-entropy experiment.
// The stop channel may be nil, in which case the experiment cannot be
// interrupted externally.
func NewCrossEntropy(gen *cem.Generator, learner agent.Learner,
	percentile, solvedAt float64, maxBatches int,
	stop <-chan struct{}, t ...tracker.Tracker) (*CrossEntropy, error) {
	if gen == nil {
		return nil, fmt.Errorf("newcrossentropy: no generator given")
	}
	if learner == nil {
		return nil, fmt.Errorf("newcrossentropy: no learner given")
	}
	if percentile < 0 || percentile > 100 {
		return nil, fmt.Errorf("newcrossentropy: percentile must be in "+
			"[0, 100], got %v", percentile)
	}
	if maxBatches < 0 {
		return nil, fmt.Errorf("newcrossentropy: illegal batch budget %v",
			maxBatches)
	}

	return &CrossEntropy{
		gen:        gen,
		learner:    learner,
		percentile: percentile,
		solvedAt:   solvedAt,
		maxBatches: maxBatches,
		stop:       stop,
		trackers:   t,
	}, nil
}

// Register registers a tracker.Tracker with the experiment
func (c *CrossEntropy) Register(t tracker.Tracker) {
	c.trackers = append(c.trackers, t)
}

// DisplayProgress makes the experiment report each iteration on the
// given status line
func (c *CrossEntropy) DisplayProgress(s *progressbar.Status) {
	c.status = s
}

// Run runs the experiment until the task is solved, the batch budget
// is exhausted, or the stop channel fires. Generation and learning
// strictly alternate: each batch is generated with the weights
// produced by the previous update.
func (c *CrossEntropy) Run() error {
	for iteration := 1; c.maxBatches == 0 ||
		iteration <= c.maxBatches; iteration++ {
		select {
		case <-c.stop:
			return nil
		default:
		}

		batch, err := c.gen.Next()
		if err != nil {
			return fmt.Errorf("run: could not generate batch: %v", err)
		}

		elite, err := cem.Filter(batch, c.percentile)
		if err != nil {
			return fmt.Errorf("run: could not filter batch: %v", err)
		}

		loss, err := c.learner.Update(elite.Observations, elite.Actions)
		if err != nil {
			return fmt.Errorf("run: could not update agent: %v", err)
		}

		c.track(tracker.Stats{
			Step:            c.gen.Steps(),
			Loss:            loss,
			RewardThreshold: elite.Threshold,
			RewardMean:      elite.Mean,
		})
		if c.status != nil {
			c.status.Report(iteration, c.gen.Steps(), loss, elite.Threshold,
				elite.Mean)
		}

		if elite.Mean >= c.solvedAt {
			return nil
		}
	}
	return nil
}

// Save saves all the data recorded by the experiment's Trackers to disk
func (c *CrossEntropy) Save() error {
	for _, t := range c.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// track records the statistics of one training iteration in each
// Tracker
func (c *CrossEntropy) track(s tracker.Stats) {
	for _, t := range c.trackers {
		t.Track(s)
	}
}
