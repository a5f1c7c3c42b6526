// Package refine implements the Refine Controller: a stateless
// multiplicative adjuster of the programmed CPU/GPU frequency pair, derived
// from original_source/policy/Refine.py.
package refine

import (
	"math"

	"github.com/edge-dvfs/policyd/internal/ladder"
)

// Observation is one app's target vs. last-observed actual throughput,
// feeding the delta computation. A nil or missing ActualTp (e.g. a crashed
// worker's sentinel row) must be filtered out by the caller before Step is
// invoked — Refine has no concept of a null entry.
type Observation struct {
	App      string
	TargetTp float64
	ActualTp float64
}

const (
	gpuFactor = 1.0
	cpuFactor = 1.71
)

// Step computes the next (cpuFreq, gpuFreq) pair given the last actualTp for
// every app and the currently programmed frequencies. Only one of the two
// return values ever differs from its input — the single-axis-per-step rule
// (spec.md §4.4 step 5) — unless both are saturated, in which case neither
// changes.
func Step(observations []Observation, cpuFreq, gpuFreq int64) (newCPUFreq, newGPUFreq int64) {
	delta := 0.0
	for _, obs := range observations {
		if obs.ActualTp <= 0 {
			continue
		}
		ratio := obs.TargetTp / obs.ActualTp
		if ratio > delta {
			delta = ratio
		}
	}
	if delta == 0 {
		return cpuFreq, gpuFreq
	}

	if delta > 1.0 {
		return accelerate(delta, cpuFreq, gpuFreq)
	}
	return decelerate(delta, cpuFreq, gpuFreq)
}

func accelerate(delta float64, cpuFreq, gpuFreq int64) (int64, int64) {
	if gpuFreq < ladder.MaxGPU {
		raw := float64(gpuFreq) * math.Pow(delta, gpuFactor)
		next, ok := ladder.AboveStrict(ladder.GPU, raw)
		if !ok {
			next = ladder.ClipTop(ladder.GPU)
		}
		return cpuFreq, next
	}
	if cpuFreq < ladder.MaxCPU {
		raw := float64(cpuFreq) * math.Pow(delta, cpuFactor)
		next, ok := ladder.AboveStrict(ladder.CPU, raw)
		if !ok {
			next = ladder.ClipTop(ladder.CPU)
		}
		return next, gpuFreq
	}
	return cpuFreq, gpuFreq
}

// decelerate preserves the source's round-up-on-the-way-down quirk: both
// branches search for the smallest ladder entry strictly greater than raw,
// even though the frequency is being lowered. When raw falls at or above the
// next rung down but below the current rung, the step is a no-op rather than
// a one-rung decrease; when raw lands exactly on the current rung (delta of
// exactly 1), the result is the rung above it. This is preserved here rather
// than "fixed" to a floor search.
func decelerate(delta float64, cpuFreq, gpuFreq int64) (int64, int64) {
	if gpuFreq > ladder.MinGPU {
		raw := float64(gpuFreq) * math.Pow(delta, gpuFactor)
		next, ok := ladder.AboveStrict(ladder.GPU, raw)
		if !ok {
			next = ladder.ClipBottom(ladder.GPU)
		}
		return cpuFreq, next
	}
	if cpuFreq > ladder.MinCPU {
		raw := float64(cpuFreq) * math.Pow(delta, cpuFactor)
		next, ok := ladder.AboveStrict(ladder.CPU, raw)
		if !ok {
			next = ladder.ClipBottom(ladder.CPU)
		}
		return next, gpuFreq
	}
	return cpuFreq, gpuFreq
}
