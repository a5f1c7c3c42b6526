package decide

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/edge-dvfs/policyd/internal/ladder"
	"github.com/edge-dvfs/policyd/internal/profile"
	"github.com/edge-dvfs/policyd/internal/workload"
)

func gpuOnlyProfile(name string, throughput map[int64]float64, targetSlowdown map[int]float64) profile.Profile {
	dla := map[int64]float64{}
	for f := range throughput {
		dla[f] = 0
	}
	p := profile.Profile{
		Name:          name,
		Throughput:    map[profile.Device]map[int64]float64{profile.GPU: throughput, profile.DLA: dla},
		Power:         map[profile.Device]map[int64]float64{profile.GPU: {}, profile.DLA: {}},
		MaxThroughput: map[profile.Device]float64{profile.GPU: maxOf(throughput), profile.DLA: 0},
		PpwRatio:      map[int64]float64{},
		Slowdown:      targetSlowdown,
	}
	for f := range throughput {
		p.PpwRatio[f] = 0 // ppw ratio 0 < threshold, forces GPU candidate
	}
	return p
}

func maxOf(m map[int64]float64) float64 {
	var max float64
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}

func TestPlanS1SingleAppGPU(t *testing.T) {
	p := gpuOnlyProfile("app1", map[int64]float64{
		306000000: 10,
		408000000: 25,
		510000000: 60,
	}, map[int]float64{1: 0})

	plan := Decide([]Request{{Profile: p, TargetTp: 20}})

	if len(plan.Specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(plan.Specs))
	}
	spec := plan.Specs[0]
	if spec.Device != workload.GPU {
		t.Errorf("device = %v, want GPU", spec.Device)
	}
	if spec.Unachievable {
		t.Errorf("expected achievable")
	}
	if plan.GPUFreq != 408000000 {
		t.Errorf("gpuFreq = %d, want 408000000", plan.GPUFreq)
	}
	if plan.CPUFreq != ladder.BaseCPU {
		t.Errorf("cpuFreq = %d, want base %d", plan.CPUFreq, ladder.BaseCPU)
	}
}

func TestPlanS3TwoAppsBothDLASaturated(t *testing.T) {
	dlaSubgraphs := make([]string, 16)
	for i := range dlaSubgraphs {
		dlaSubgraphs[i] = "layer"
	}

	highPpw := map[int64]float64{306000000: 1.5, 408000000: 2.0}

	mk := func(name string) profile.Profile {
		return profile.Profile{
			Name:          name,
			DLASubgraphs:  dlaSubgraphs,
			Throughput:    map[profile.Device]map[int64]float64{GPUKey: {306000000: 5, 408000000: 10}, DLAKey: {306000000: 20, 408000000: 40}},
			Power:         map[profile.Device]map[int64]float64{GPUKey: {}, DLAKey: {}},
			MaxThroughput: map[profile.Device]float64{GPUKey: 10, DLAKey: 40},
			PpwRatio:      highPpw,
			Slowdown:      map[int]float64{2: 0},
		}
	}

	requests := []Request{
		{Profile: mk("a"), TargetTp: 15},
		{Profile: mk("b"), TargetTp: 15},
	}

	plan := Decide(requests)

	if plan.Specs[0].Device != workload.DLA0 {
		t.Errorf("first app device = %v, want DLA0", plan.Specs[0].Device)
	}
	if plan.Specs[1].Device != workload.DLA1 {
		t.Errorf("second app device = %v, want DLA1", plan.Specs[1].Device)
	}
}

func TestPlanUnachievableFallsBackToArgmax(t *testing.T) {
	p := gpuOnlyProfile("starved", map[int64]float64{306000000: 1, 408000000: 2}, map[int]float64{1: 0})

	plan := Decide([]Request{{Profile: p, TargetTp: 1000}})

	if !plan.Specs[0].Unachievable {
		t.Errorf("expected unachievable")
	}
	if plan.GPUFreq != ladder.MaxGPU {
		t.Errorf("gpuFreq = %d, want MaxGPU %d", plan.GPUFreq, ladder.MaxGPU)
	}
}

func TestPlanSingleAppDisablesSlowdown(t *testing.T) {
	p := gpuOnlyProfile("solo", map[int64]float64{306000000: 100}, map[int]float64{2: 0.9})
	plan := Decide([]Request{{Profile: p, TargetTp: 90}})
	if plan.Specs[0].Unachievable {
		t.Errorf("N=1 must not apply the slowdown[2] factor")
	}
}

func TestPlanS3SpecOrderMatchesRequestOrder(t *testing.T) {
	dlaSubgraphs := make([]string, 16)
	for i := range dlaSubgraphs {
		dlaSubgraphs[i] = "layer"
	}
	highPpw := map[int64]float64{306000000: 1.5, 408000000: 2.0}

	mk := func(name string) profile.Profile {
		return profile.Profile{
			Name:          name,
			DLASubgraphs:  dlaSubgraphs,
			Throughput:    map[profile.Device]map[int64]float64{GPUKey: {306000000: 5, 408000000: 10}, DLAKey: {306000000: 20, 408000000: 40}},
			Power:         map[profile.Device]map[int64]float64{GPUKey: {}, DLAKey: {}},
			MaxThroughput: map[profile.Device]float64{GPUKey: 10, DLAKey: 40},
			PpwRatio:      highPpw,
			Slowdown:      map[int]float64{2: 0},
		}
	}

	requests := []Request{
		{Profile: mk("a"), TargetTp: 15},
		{Profile: mk("b"), TargetTp: 15},
	}
	plan := Decide(requests)

	want := []workload.Device{workload.DLA0, workload.DLA1}
	got := []workload.Device{plan.Specs[0].Device, plan.Specs[1].Device}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("device assignment mismatch (-want +got):\n%s", diff)
	}
}

var (
	GPUKey = profile.GPU
	DLAKey = profile.DLA
)
