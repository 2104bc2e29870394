// Package config holds the tunables for the batch resize engine: stage
// worker counts, queue capacities, buffer-pool bounds, and a memory budget
// setting.
package config

import "errors"

// Config is the top-level engine configuration. A zero Config is invalid;
// start from Default() and override only what differs.
type Config struct {
	// Pipeline stage shape (spec default: 4 decode / 8 resize / 4 encode).
	DecodeWorkers int
	ResizeWorkers int
	EncodeWorkers int

	// Bounded inter-stage queue capacity. 0 means the spec default (32).
	QueueCapacity int

	// MemoryBudgetBytes is checked by Validate (it must be non-negative) but
	// is not read by the pipeline: queue capacity always comes from
	// QueueCapacity. queue.SizeAwareCapacity computes a capacity from a
	// budget for a caller that sets QueueCapacity from it.
	MemoryBudgetBytes int64

	// BufferPoolCapacity bounds the number of entries retained per buffer
	// pool (spec default: 32).
	BufferPoolCapacity int

	// PipelineThreshold is the minimum batch size at which MaxSpeed selects
	// the pipeline scheduler over the worker-pool scheduler (spec: 20).
	PipelineThreshold int

	// LogLevel controls the slog handler level: "debug", "info", "warn", "error".
	LogLevel string
}

// Default returns the engine configuration implied by spec.md's stated
// defaults.
func Default() Config {
	return Config{
		DecodeWorkers:      4,
		ResizeWorkers:      8,
		EncodeWorkers:      4,
		QueueCapacity:      32,
		BufferPoolCapacity: 32,
		PipelineThreshold:  20,
		LogLevel:           "info",
	}
}

// Validate returns an error describing the first inconsistency found, or nil.
func Validate(c Config) error {
	if c.DecodeWorkers <= 0 || c.ResizeWorkers <= 0 || c.EncodeWorkers <= 0 {
		return errors.New("config: stage worker counts must be positive")
	}
	if c.QueueCapacity <= 0 {
		return errors.New("config: QueueCapacity must be positive")
	}
	if c.BufferPoolCapacity <= 0 {
		return errors.New("config: BufferPoolCapacity must be positive")
	}
	if c.PipelineThreshold < 0 {
		return errors.New("config: PipelineThreshold must be non-negative")
	}
	if c.MemoryBudgetBytes < 0 {
		return errors.New("config: MemoryBudgetBytes must be non-negative")
	}
	return nil
}
