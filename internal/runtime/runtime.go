// Package runtime defines the opaque inference-runtime capability the
// Execution Supervisor drives, plus a deterministic mock implementation
// used when no real accelerator runtime is wired in.
package runtime

import (
	"context"
	"time"
)

// InferenceRuntime is the "out of scope" external collaborator named in
// spec.md §1(i): the core only needs a "run one batch" primitive and a
// synchronise primitive. A real implementation would deserialise a compiled
// engine and submit work to the chosen accelerator; it owns its device
// buffers exclusively and is never shared across workers.
type InferenceRuntime interface {
	// RunBatch submits one batch of batchSize inputs and returns the
	// wall-clock duration the call took to submit (not necessarily to
	// complete — completion is observed via Synchronize).
	RunBatch(ctx context.Context, batchSize int) (time.Duration, error)

	// Synchronize blocks until all batches submitted so far have completed,
	// and returns the accumulated device-side compute time since the last
	// call. This is the opTime contribution Heartbeat.ActualTp is derived
	// from.
	Synchronize(ctx context.Context) (time.Duration, error)

	// Close releases any device resources. Called once, after the worker's
	// final Synchronize.
	Close() error
}

// Factory constructs a fresh InferenceRuntime for one app, on the worker's
// own goroutine, before that worker waits on the start barrier — mirroring
// spec.md §9's "no shared mutable inference state" design note. Runtime
// construction is therefore not part of the post-barrier clock.
type Factory func(appName string, device string) (InferenceRuntime, error)
