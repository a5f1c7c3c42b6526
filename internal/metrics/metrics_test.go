package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
)

func TestRecorderPublishesHeartbeat(t *testing.T) {
	rec := NewRecorder()
	rec.WorkerHeartbeat("resnet", supervisor.Heartbeat{ObservedTp: 100, ActualTp: 105})

	if got := testutil.ToFloat64(rec.observedTp.WithLabelValues("resnet")); got != 100 {
		t.Errorf("observedTp = %v, want 100", got)
	}
	if got := testutil.ToFloat64(rec.actualTp.WithLabelValues("resnet")); got != 105 {
		t.Errorf("actualTp = %v, want 105", got)
	}
}

func TestRecorderPublishesSamplerTickOnlyKnownRails(t *testing.T) {
	rec := NewRecorder()
	rec.SamplerTick(supervisor.SamplerRecord{
		AvgPowerMilliwatt: map[sensor.Rail]float64{sensor.VDDIn: 5500},
		CPUFreq:           729600,
		GPUFreq:           408000000,
	})

	if got := testutil.ToFloat64(rec.railPower.WithLabelValues(string(sensor.VDDIn))); got != 5500 {
		t.Errorf("VDD_IN power = %v, want 5500", got)
	}
	if got := testutil.ToFloat64(rec.cpuFreq); got != 729600 {
		t.Errorf("cpuFreq = %v, want 729600", got)
	}
}

func TestRecorderCountsCrashes(t *testing.T) {
	rec := NewRecorder()
	rec.WorkerCrashed("crashy", nil)
	rec.WorkerCrashed("crashy", nil)

	if got := testutil.ToFloat64(rec.crashesTot.WithLabelValues("crashy")); got != 2 {
		t.Errorf("crashes = %v, want 2", got)
	}
}

func TestRegistryGatherIncludesMetricNames(t *testing.T) {
	rec := NewRecorder()
	rec.WorkerHeartbeat("resnet", supervisor.Heartbeat{ObservedTp: 1, ActualTp: 1})

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	if !strings.Contains(strings.Join(names, ","), "policyd_worker_observed_throughput") {
		t.Errorf("expected observed throughput metric to be registered, got %v", names)
	}
}
