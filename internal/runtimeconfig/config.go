// Package runtimeconfig loads the evaluator thresholds and auto-snapshot
// cadence from a YAML file, falling back to the same defaults the core
// would use if no file is present.
package runtimeconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime-tunable knob that is not a fixed
// invariant of the core: evaluator thresholds and the snapshot cadence.
type Config struct {
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
}

// EvaluatorConfig mirrors evaluate_workflow's tunable thresholds.
type EvaluatorConfig struct {
	CostThresholdUSD float64 `yaml:"cost_threshold_usd"`
	TimeThresholdMS  int64   `yaml:"time_threshold_ms"`
	MaxIterations    int     `yaml:"max_iterations"`
}

// SnapshotConfig mirrors the EventStore's auto-snapshot trigger.
type SnapshotConfig struct {
	EveryNEvents int `yaml:"every_n_events"`
}

// Default returns the same thresholds the core falls back to with no
// config file present: $0.50/feature, 120s/feature, 50 max iterations,
// a snapshot every 100 events.
func Default() Config {
	return Config{
		Evaluator: EvaluatorConfig{
			CostThresholdUSD: 0.50,
			TimeThresholdMS:  120_000,
			MaxIterations:    50,
		},
		Snapshot: SnapshotConfig{EveryNEvents: 100},
	}
}

// Load reads config from path, falling back to Default() for any field left
// unset at zero value in the YAML document. A missing file is not an error:
// Load returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("runtimeconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("runtimeconfig: parse %s: %w", path, err)
	}
	if cfg.Snapshot.EveryNEvents <= 0 {
		cfg.Snapshot.EveryNEvents = Default().Snapshot.EveryNEvents
	}
	if cfg.Evaluator.MaxIterations <= 0 {
		cfg.Evaluator.MaxIterations = Default().Evaluator.MaxIterations
	}
	return cfg, nil
}
