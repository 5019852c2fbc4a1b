// Trains a drone landing policy with the cross-entropy method.
//
// Two environment backends are available: a local Box2D landing
// environment and a bridge to the externally registered Gazebo/ROS gym
// environment. The training loop runs until the task is solved, the
// batch budget runs out, or the process is interrupted; recorded
// metrics are saved either way.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gianfranco98/pipeland/agent/cem"
	env "github.com/gianfranco98/pipeland/environment"
	"github.com/gianfranco98/pipeland/environment/gym"
	"github.com/gianfranco98/pipeland/environment/pipedrone"
	"github.com/gianfranco98/pipeland/experiment"
	"github.com/gianfranco98/pipeland/experiment/tracker"
	"github.com/gianfranco98/pipeland/utils/progressbar"
	"github.com/gianfranco98/pipeland/world"
)

func main() {
	var (
		backend    = flag.String("backend", "pipedrone", "environment backend: pipedrone or gym")
		envName    = flag.String("env", gym.DroneLand, "gym environment name (gym backend only)")
		seed       = flag.Uint64("seed", 1, "random seed")
		cutoff     = flag.Int("cutoff", 500, "episode step limit (pipedrone backend only)")
		batchSize  = flag.Int("batch", 16, "episodes per training batch")
		percentile = flag.Float64("percentile", 70, "elite percentile in [0, 100]")
		epsilon    = flag.Float64("epsilon", 0.0, "probability of a uniformly random action")
		hidden     = flag.Int("hidden", 128, "policy hidden layer width")
		lr         = flag.Float64("lr", 0.01, "solver step size")
		solvedAt   = flag.Float64("solved", 150, "mean batch return at which the task counts as solved")
		maxBatches = flag.Int("batches", 0, "batch budget, 0 for unbounded")
		metricsDir = flag.String("metrics", "metrics", "directory for recorded metric series")
		worldOut   = flag.String("world", "", "write the SDF landing scene to this path and exit")
	)
	flag.Parse()

	if *worldOut != "" {
		if err := writeWorld(*worldOut); err != nil {
			log.Fatal(err)
		}
		return
	}

	e, err := newEnvironment(*backend, *envName, *cutoff, *seed)
	if err != nil {
		log.Fatal(err)
	}

	config, err := cem.NewConfig(*hidden, *epsilon, *lr)
	if err != nil {
		log.Fatal(err)
	}
	agent, err := cem.New(e, config, *seed)
	if err != nil {
		log.Fatal(err)
	}

	gen, err := cem.NewGenerator(e, agent, *batchSize)
	if err != nil {
		log.Fatal(err)
	}

	// Interrupt stops the training loop cleanly at the next iteration
	stop := make(chan struct{})
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		close(stop)
	}()

	exp, err := experiment.NewCrossEntropy(gen, agent, *percentile,
		*solvedAt, *maxBatches, stop, tracker.NewLearning(*metricsDir))
	if err != nil {
		log.Fatal(err)
	}

	status := progressbar.NewStatus(os.Stdout)
	exp.DisplayProgress(status)

	runErr := exp.Run()
	status.Close()
	if err := exp.Save(); err != nil {
		log.Fatal(err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}

	printTail(*metricsDir)
}

// newEnvironment creates the selected environment backend
func newEnvironment(backend, envName string, cutoff int,
	seed uint64) (env.Environment, error) {
	switch backend {
	case "pipedrone":
		task := pipedrone.NewDefaultLand(cutoff, seed)
		e, _, err := pipedrone.NewDiscrete(task, seed)
		return e, err
	case "gym":
		e, _, err := gym.New(envName, seed)
		return e, err
	}
	return nil, fmt.Errorf("no such environment backend %q", backend)
}

// writeWorld emits the SDF landing scene: a row of static pipes lying
// on their sides in front of the ground plane
func writeWorld(path string) error {
	w := world.New("pipeland")
	w.AddPipeRow(4, 0.5, 5.0, 2.0, world.NewPose(3, -3, 0.5, 1.5708, 0, 0))
	return w.WriteFile(path)
}

// printTail prints the last recorded training statistics
func printTail(metricsDir string) {
	steps, err := tracker.LoadSteps(filepath.Join(metricsDir,
		tracker.StepsFile))
	if err != nil || len(steps) == 0 {
		return
	}
	mean, err := tracker.LoadData(filepath.Join(metricsDir,
		tracker.MeanFile))
	if err != nil {
		return
	}
	threshold, err := tracker.LoadData(filepath.Join(metricsDir,
		tracker.ThresholdFile))
	if err != nil {
		return
	}

	last := len(steps) - 1
	fmt.Printf("trained for %v batches (%v steps): mean return %.2f, "+
		"elite threshold %.2f\n", len(steps), steps[last], mean[last],
		threshold[last])
}
