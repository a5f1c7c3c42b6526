package supervisor

import (
	"github.com/google/uuid"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/workload"
)

// Heartbeat is produced every heartbeatInterval by a worker (spec.md §3).
type Heartbeat struct {
	ObservedTp float64
	ActualTp   float64
}

// SamplerRecord is produced every heartbeatInterval by the sampler.
type SamplerRecord struct {
	AvgPowerMilliwatt map[sensor.Rail]float64
	CPUFreq           int64
	GPUFreq           int64
}

// WorkerResult is the private, owned-by-the-worker list handed to the
// Supervisor only after the worker's context terminates (spec.md §3
// ownership rule).
type WorkerResult struct {
	App        string
	Device     workload.Device
	TargetTp   float64
	Heartbeats []Heartbeat
	// Crashed is true if the worker's inference runtime returned an error.
	// A crashed worker contributes no heartbeats to the final result row
	// regardless of heartbeats it may have already emitted (spec.md §7,
	// §8 S6).
	Crashed bool
}

// AppResult is one row of the Run Result (spec.md §3). LastObservedTp and
// LastActualTp are nil ("sentinel null") when the worker crashed.
type AppResult struct {
	App           string
	Device        workload.Device
	TargetTp      float64
	Unachievable  bool
	ProgrammedCPU int64
	ProgrammedGPU int64

	LastObservedTp *float64
	LastActualTp   *float64

	AvgPowerMilliwatt map[sensor.Rail]float64
	RunCPUFreq        int64
	RunGPUFreq        int64
}

// RunResult is the aggregated output of one Execute call: one row per app.
type RunResult struct {
	RunID uuid.UUID
	Apps  []AppResult
}
