// Package decide implements the Decide Planner: a pure function that turns
// a set of (App, target-throughput) pairs into a device placement and a
// minimum CPU/GPU frequency pair, grounded in
// original_source/policy/{Decide,App}.py's analyze_app/get_tp_freq split.
package decide

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/ladder"
	"github.com/edge-dvfs/policyd/internal/profile"
	"github.com/edge-dvfs/policyd/internal/workload"
)

// DLAThreshold is the minimum average ppw ratio above which DLA placement
// is even considered, named after App.py's DLA_THRESH.
const DLAThreshold = 1.0

// DLACapacityPerCore is the number of dla_subgraph units each DLA core can
// host before it is considered full (spec.md §4.2 step 3).
const DLACapacityPerCore = 16

// Request is one app's entry into a Decide call: its profile and its
// declared target throughput.
type Request struct {
	Profile  profile.Profile
	TargetTp float64
}

// Plan is the output of Decide: one workload.Spec per app plus the
// frequency pair every app's worker should start at.
type Plan struct {
	Specs   []workload.Spec
	CPUFreq int64
	GPUFreq int64
}

// Decide runs the full Decide algorithm. It never fails: an app whose
// target is unachievable on either device is still placed, with
// Spec.Unachievable set.
func Decide(requests []Request) Plan {
	n := len(requests)

	sorted := make([]Request, n)
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		return profile.AvgPpwRatio(sorted[i].Profile) < profile.AvgPpwRatio(sorted[j].Profile)
	})

	dla0Cap := DLACapacityPerCore
	dla1Cap := DLACapacityPerCore

	specs := make([]workload.Spec, 0, n)
	var gpuFreq int64

	for _, req := range sorted {
		p := req.Profile
		factor := slowdownFactor(p, n)
		avgPpw := profile.AvgPpwRatio(p)

		candidate := profile.GPU
		if avgPpw > DLAThreshold && p.MaxThroughput[profile.DLA]*factor >= req.TargetTp {
			candidate = profile.DLA
		} else if p.MaxThroughput[profile.GPU]*factor >= req.TargetTp {
			candidate = profile.GPU
		} else {
			candidate = argmaxThroughput(p)
		}

		var device workload.Device
		numSubgraphs := len(p.DLASubgraphs)
		switch {
		case candidate != profile.DLA:
			device = workload.GPU
		case numSubgraphs <= dla0Cap:
			device = workload.DLA0
			dla0Cap -= numSubgraphs
		case numSubgraphs <= dla1Cap:
			device = workload.DLA1
			dla1Cap -= numSubgraphs
		default:
			device = workload.GPU
		}

		// Frequency is derived from the originally analyzed candidate device,
		// not the final placement: an app that loses the DLA capacity race
		// and falls back to GPU still has its minimum frequency computed
		// against the DLA throughput table, matching
		// original_source/policy/Decide.py's `get_tp_freq(...)[device]`
		// lookup (device is analyze_app's candidate, never the post-capacity
		// label).
		minFreq, achievable := minFreqFor(p, candidate, factor, req.TargetTp)
		unachievable := !achievable
		if unachievable {
			minFreq = ladder.MaxGPU
			logrus.WithFields(logrus.Fields{
				"app":    p.Name,
				"target": req.TargetTp,
				"device": device,
			}).Warn("target throughput unachievable on chosen device")
		}
		if minFreq > gpuFreq {
			gpuFreq = minFreq
		}

		specs = append(specs, workload.Spec{
			App:          p.Name,
			TargetTp:     req.TargetTp,
			Device:       device,
			Unachievable: unachievable,
		})
	}

	return Plan{Specs: specs, CPUFreq: ladder.BaseCPU, GPUFreq: gpuFreq}
}

func slowdownFactor(p profile.Profile, n int) float64 {
	return p.SlowdownFactor(n)
}

func argmaxThroughput(p profile.Profile) profile.Device {
	if p.MaxThroughput[profile.DLA] > p.MaxThroughput[profile.GPU] {
		return profile.DLA
	}
	return profile.GPU
}

// minFreqFor finds the minimum GPU-ladder frequency at which device's
// measured throughput, derated by factor, meets targetTp. ok is false if no
// ladder entry suffices.
func minFreqFor(p profile.Profile, device profile.Device, factor, targetTp float64) (freq int64, ok bool) {
	return ladder.MinAtLeast(ladder.GPU, func(f int64) bool {
		return p.Throughput[device][f]*factor >= targetTp
	})
}
