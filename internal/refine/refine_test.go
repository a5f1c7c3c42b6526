package refine

import (
	"testing"

	"github.com/edge-dvfs/policyd/internal/ladder"
)

func TestStepS1Accelerate(t *testing.T) {
	// delta = 20/18 ~= 1.11, gpuFreq starts at 408e6, should promote to 510e6.
	cpu, gpu := Step([]Observation{{App: "a", TargetTp: 20, ActualTp: 18}}, ladder.BaseCPU, 408000000)
	if gpu != 510000000 {
		t.Errorf("gpuFreq = %d, want 510000000", gpu)
	}
	if cpu != ladder.BaseCPU {
		t.Errorf("cpuFreq changed to %d, want unchanged %d", cpu, ladder.BaseCPU)
	}
}

func TestStepS4Decelerate(t *testing.T) {
	cpu, gpu := Step([]Observation{{App: "a", TargetTp: 7, ActualTp: 10}}, ladder.BaseCPU, 612000000)
	if gpu >= 612000000 {
		t.Errorf("gpuFreq = %d, want a step below 612000000", gpu)
	}
	if cpu != ladder.BaseCPU {
		t.Errorf("cpuFreq changed to %d, want unchanged %d", cpu, ladder.BaseCPU)
	}
}

func TestStepS4DecelerateCanBeNoOp(t *testing.T) {
	// delta = 9/10 = 0.9, gpuFreq = 510e6 -> raw = 459e6, which sits strictly
	// between the 408e6 rung below and the current 510e6 rung. AboveStrict
	// returns the smallest ladder entry strictly greater than raw, which is
	// 510e6 itself: the decelerate branch fires but the frequency doesn't
	// move, the documented round-up-can-be-a-no-op quirk.
	cpu, gpu := Step([]Observation{{App: "a", TargetTp: 9, ActualTp: 10}}, ladder.BaseCPU, 510000000)
	if gpu != 510000000 {
		t.Errorf("gpuFreq = %d, want unchanged 510000000 (no-op quirk)", gpu)
	}
	if cpu != ladder.BaseCPU {
		t.Errorf("cpuFreq changed to %d, want unchanged %d", cpu, ladder.BaseCPU)
	}
}

func TestStepS5SaturatedAccelerationBumpsCPU(t *testing.T) {
	cpu, gpu := Step([]Observation{{App: "a", TargetTp: 1.5, ActualTp: 1.0}}, ladder.BaseCPU, ladder.MaxGPU)
	if gpu != ladder.MaxGPU {
		t.Errorf("gpuFreq = %d, want unchanged MaxGPU %d", gpu, ladder.MaxGPU)
	}
	if cpu <= ladder.BaseCPU {
		t.Errorf("cpuFreq = %d, want a step above base %d", cpu, ladder.BaseCPU)
	}
}

func TestStepFullySaturatedIsNoOp(t *testing.T) {
	cpu, gpu := Step([]Observation{{App: "a", TargetTp: 2, ActualTp: 1}}, ladder.MaxCPU, ladder.MaxGPU)
	if cpu != ladder.MaxCPU || gpu != ladder.MaxGPU {
		t.Errorf("got (%d,%d), want both saturated and unchanged", cpu, gpu)
	}
}

func TestStepOnlyOneAxisChangesPerCall(t *testing.T) {
	cpu, gpu := Step([]Observation{{App: "a", TargetTp: 20, ActualTp: 18}}, ladder.BaseCPU, 408000000)
	if cpu != ladder.BaseCPU && gpu != 408000000 {
		t.Fatalf("both axes changed: cpu=%d gpu=%d", cpu, gpu)
	}
}

func TestStepIgnoresNullObservations(t *testing.T) {
	// S6: a crashed worker contributes no actual throughput; Refine must
	// ignore it rather than treating a zero actualTp as an infinite delta.
	// The one valid app gives delta = 1.0, which takes the decelerate branch:
	// raw = 408e6 sits exactly on a rung, and the strict round-up lands on
	// 510e6. An infinite delta would instead clip the GPU to MaxGPU.
	cpu, gpu := Step([]Observation{
		{App: "ok", TargetTp: 20, ActualTp: 20},
		{App: "crashed", TargetTp: 20, ActualTp: 0},
	}, ladder.BaseCPU, 408000000)
	if cpu != ladder.BaseCPU || gpu != 510000000 {
		t.Errorf("got (%d,%d), want (%d,510000000) from the one valid app's delta of 1.0", cpu, gpu, ladder.BaseCPU)
	}
}

func TestStepOutputsAlwaysOnLadder(t *testing.T) {
	onLadder := func(v int64, vals []int64) bool {
		for _, f := range vals {
			if f == v {
				return true
			}
		}
		return false
	}

	cases := []struct {
		target, actual   float64
		cpuFreq, gpuFreq int64
	}{
		{20, 5, ladder.BaseCPU, 408000000},
		{5, 20, ladder.BaseCPU, 612000000},
		{20, 5, ladder.BaseCPU, ladder.MaxGPU},
		{5, 20, ladder.BaseCPU, ladder.MinGPU},
	}
	for _, tc := range cases {
		cpu, gpu := Step([]Observation{{App: "a", TargetTp: tc.target, ActualTp: tc.actual}}, tc.cpuFreq, tc.gpuFreq)
		if !onLadder(cpu, ladder.CPU) {
			t.Errorf("cpu %d not on ladder", cpu)
		}
		if !onLadder(gpu, ladder.GPU) {
			t.Errorf("gpu %d not on ladder", gpu)
		}
	}
}
