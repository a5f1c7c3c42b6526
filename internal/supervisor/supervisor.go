// Package supervisor implements the Execution Supervisor: it spawns one
// worker per app plus one sampler, synchronises their start on a barrier,
// runs them for a bounded duration, and aggregates the result — grounded in
// original_source/policy/{Engine,Stats}.py's loop shapes, restructured per
// spec.md §4.3 into independent, barrier-synchronised goroutines instead of
// the original's separate OS processes.
package supervisor

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/actuator"
	"github.com/edge-dvfs/policyd/internal/runtime"
	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/workload"
)

// Observer receives side-channel events during Execute — Prometheus
// instrumentation and the live TUI both implement it. Observer calls must
// never affect Execute's return value; a nil Observer is valid and
// equivalent to NoopObserver{}. Events are not streamed during a Run: a
// worker's heartbeats are delivered when that worker's loop has ended, and
// the sampler's records when the sampler's loop has ended.
type Observer interface {
	WorkerHeartbeat(app string, hb Heartbeat)
	SamplerTick(rec SamplerRecord)
	WorkerCrashed(app string, err error)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) WorkerHeartbeat(string, Heartbeat)  {}
func (NoopObserver) SamplerTick(SamplerRecord)          {}
func (NoopObserver) WorkerCrashed(string, error)        {}

// Params bundles everything Execute needs for one Run.
type Params struct {
	Specs []workload.Spec
	// ImagesPerSecond is the per-app mock-runtime target throughput at the
	// currently programmed GPU frequency, used only when RuntimeFactory is
	// nil (the default deterministic mock path).
	ImagesPerSecond map[string]float64

	CPUFreq, GPUFreq int64
	CPUIndex         int

	Duration          time.Duration
	HeartbeatInterval time.Duration
	SamplerInterval   time.Duration
	BatchSize         int

	RuntimeFactory runtime.Factory
	Sensor         sensor.PowerSensor
	Actuator       actuator.FrequencyActuator
	Seed           runtime.RunSeed

	// Sampler carries sampler-loop options beyond pacing, such as an
	// optional continuous VDD CSV trace (Sampler.TracePath).
	Sampler Sampler

	Observer Observer
}

var errCrashed = errors.New("worker inference runtime error")

// Execute runs one Run: preconditions are that the actuator has already
// programmed CPUFreq/GPUFreq (the Supervisor only reads them back via the
// sampler) and that Sensor/Actuator/RuntimeFactory are ready to use.
func Execute(ctx context.Context, p Params) RunResult {
	obs := p.Observer
	if obs == nil {
		obs = NoopObserver{}
	}

	runCtx, cancel := context.WithTimeout(ctx, p.Duration)
	defer cancel()

	n := len(p.Specs)
	barrier := NewBarrier(n + 1)

	rng := runtime.NewPartitionedRNG(p.Seed)
	factory := p.RuntimeFactory
	if factory == nil {
		// PartitionedRNG is not safe for concurrent use, so every app's
		// generator is derived here, before the worker goroutines start.
		appRNG := make(map[string]*rand.Rand, n)
		for _, spec := range p.Specs {
			appRNG[spec.App] = rng.ForApp(spec.App)
		}
		factory = func(appName, device string) (runtime.InferenceRuntime, error) {
			return runtime.NewMockRuntime(p.ImagesPerSecond[appName], appRNG[appName]), nil
		}
	}

	var wg sync.WaitGroup
	workerResults := make([]WorkerResult, n)

	for i, spec := range p.Specs {
		i, spec := i, spec
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt, err := factory(spec.App, string(spec.Device))
			if err != nil {
				logrus.WithError(err).WithField("app", spec.App).Error("failed to initialize inference runtime")
				obs.WorkerCrashed(spec.App, err)
				barrier.Wait()
				workerResults[i] = WorkerResult{App: spec.App, Device: spec.Device, TargetTp: spec.TargetTp, Crashed: true}
				return
			}
			defer rt.Close() //nolint:errcheck // best-effort device cleanup, not actionable

			res := runWorker(runCtx, spec, p.BatchSize, p.HeartbeatInterval, rt, barrier)
			for _, hb := range res.Heartbeats {
				obs.WorkerHeartbeat(spec.App, hb)
			}
			if res.Crashed {
				obs.WorkerCrashed(spec.App, errCrashed)
			}
			workerResults[i] = res
		}()
	}

	var samplerRecords []SamplerRecord
	wg.Add(1)
	go func() {
		defer wg.Done()
		samplerRecords = p.Sampler.run(runCtx, p.SamplerInterval, p.HeartbeatInterval, p.Sensor, p.Actuator, p.CPUIndex, barrier)
		for _, rec := range samplerRecords {
			obs.SamplerTick(rec)
		}
	}()

	wg.Wait()

	return aggregate(p, workerResults, samplerRecords)
}

func aggregate(p Params, workers []WorkerResult, samplers []SamplerRecord) RunResult {
	var lastSampler SamplerRecord
	if len(samplers) > 0 {
		lastSampler = samplers[len(samplers)-1]
	}

	apps := make([]AppResult, 0, len(workers))
	for i, w := range workers {
		spec := p.Specs[i]
		ar := AppResult{
			App:               spec.App,
			Device:            spec.Device,
			TargetTp:          spec.TargetTp,
			Unachievable:      spec.Unachievable,
			ProgrammedCPU:     p.CPUFreq,
			ProgrammedGPU:     p.GPUFreq,
			AvgPowerMilliwatt: lastSampler.AvgPowerMilliwatt,
			RunCPUFreq:        lastSampler.CPUFreq,
			RunGPUFreq:        lastSampler.GPUFreq,
		}
		if !w.Crashed && len(w.Heartbeats) > 0 {
			last := w.Heartbeats[len(w.Heartbeats)-1]
			observed, actual := last.ObservedTp, last.ActualTp
			ar.LastObservedTp = &observed
			ar.LastActualTp = &actual
		}
		apps = append(apps, ar)
	}

	return RunResult{RunID: uuid.New(), Apps: apps}
}
