package supervisor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/runtime"
	"github.com/edge-dvfs/policyd/internal/workload"
)

// runWorker executes one app's loop until deadline, after first blocking on
// barrier so every worker (and the sampler) shares a common clock zero
// (spec.md §4.3). It never returns an error: failures are captured in the
// returned WorkerResult's Crashed flag, isolating the offending app from
// its siblings (spec.md §7).
func runWorker(ctx context.Context, spec workload.Spec, batchSize int, heartbeatInterval time.Duration, rt runtime.InferenceRuntime, barrier *Barrier) WorkerResult {
	result := WorkerResult{App: spec.App, Device: spec.Device, TargetTp: spec.TargetTp}

	barrier.Wait()
	startTime := time.Now()

	lastHBTime := startTime
	var totalBatches, windowBatches int64
	var windowOpTime time.Duration

	for {
		select {
		case <-ctx.Done():
			finalizeWindow(&result, windowBatches, batchSize, windowOpTime, lastHBTime)
			return result
		default:
		}

		submitDuration, err := rt.RunBatch(ctx, batchSize)
		if err != nil {
			logrus.WithError(err).WithField("app", spec.App).Error("inference runtime error; isolating worker")
			result.Crashed = true
			result.Heartbeats = nil
			return result
		}
		waitDuration, err := rt.Synchronize(ctx)
		if err != nil {
			logrus.WithError(err).WithField("app", spec.App).Error("inference runtime error during synchronize; isolating worker")
			result.Crashed = true
			result.Heartbeats = nil
			return result
		}

		totalBatches++
		windowBatches++
		windowOpTime += submitDuration + waitDuration

		now := time.Now()
		if now.Sub(lastHBTime) >= heartbeatInterval {
			finalizeWindow(&result, windowBatches, batchSize, windowOpTime, lastHBTime)
			windowBatches = 0
			windowOpTime = 0
			lastHBTime = now
		}

		if spec.TargetTp > 0 {
			elapsedSinceStart := time.Since(startTime)
			wantElapsed := time.Duration(float64(totalBatches*int64(batchSize)) / spec.TargetTp * float64(time.Second))
			if sleep := wantElapsed - elapsedSinceStart; sleep > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(sleep):
				}
			}
		}
	}
}

// finalizeWindow appends a Heartbeat for the elapsed window, when the
// window actually contains at least one batch — an empty trailing window
// at ctx cancellation contributes nothing.
func finalizeWindow(result *WorkerResult, windowBatches int64, batchSize int, windowOpTime time.Duration, windowStart time.Time) {
	if windowBatches == 0 {
		return
	}
	wallElapsed := time.Since(windowStart).Seconds()
	if wallElapsed <= 0 {
		return
	}
	observedTp := float64(windowBatches*int64(batchSize)) / wallElapsed
	actualTp := observedTp
	if windowOpTime > 0 {
		actualTp = float64(windowBatches*int64(batchSize)) / windowOpTime.Seconds()
	}
	result.Heartbeats = append(result.Heartbeats, Heartbeat{ObservedTp: observedTp, ActualTp: actualTp})
}
