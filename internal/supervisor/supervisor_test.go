package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/edge-dvfs/policyd/internal/actuator"
	"github.com/edge-dvfs/policyd/internal/runtime"
	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/workload"
)

func baseParams(specs []workload.Spec) Params {
	return Params{
		Specs:             specs,
		ImagesPerSecond:   map[string]float64{"app1": 200, "app2": 200},
		CPUFreq:           729600,
		GPUFreq:           408000000,
		CPUIndex:          0,
		Duration:          120 * time.Millisecond,
		HeartbeatInterval: 30 * time.Millisecond,
		SamplerInterval:   10 * time.Millisecond,
		BatchSize:         4,
		Sensor:            sensor.NewMock(1),
		Actuator:          actuator.NewMock(),
		Seed:              1,
	}
}

func TestExecuteProducesHeartbeatsWithinDuration(t *testing.T) {
	specs := []workload.Spec{{App: "app1", TargetTp: 100, Device: workload.GPU}}
	params := baseParams(specs)

	start := time.Now()
	result := Execute(context.Background(), params)
	elapsed := time.Since(start)

	if elapsed > params.Duration+500*time.Millisecond {
		t.Fatalf("Execute took %v, want close to duration %v", elapsed, params.Duration)
	}
	if len(result.Apps) != 1 {
		t.Fatalf("expected 1 app result, got %d", len(result.Apps))
	}
	ar := result.Apps[0]
	if ar.LastObservedTp == nil || *ar.LastObservedTp < 0 {
		t.Fatalf("expected non-negative LastObservedTp, got %v", ar.LastObservedTp)
	}
	if ar.LastActualTp == nil || *ar.LastActualTp < *ar.LastObservedTp-1e-9 {
		t.Fatalf("expected actualTp >= observedTp (pacing only slows wall time), got actual=%v observed=%v", *ar.LastActualTp, *ar.LastObservedTp)
	}
}

func TestExecuteIsolatesCrashedWorker(t *testing.T) {
	specs := []workload.Spec{
		{App: "ok", TargetTp: 100, Device: workload.GPU},
		{App: "crashy", TargetTp: 100, Device: workload.GPU},
	}
	params := baseParams(specs)
	params.ImagesPerSecond["ok"] = 200
	params.RuntimeFactory = func(app, device string) (runtime.InferenceRuntime, error) {
		if app == "crashy" {
			return &crashingRuntime{}, nil
		}
		return runtime.NewMockRuntime(200, runtime.NewPartitionedRNG(1).ForApp(app)), nil
	}

	result := Execute(context.Background(), params)

	foundOK, foundCrashed := false, false
	for _, ar := range result.Apps {
		if ar.App == "ok" {
			foundOK = true
			if ar.LastObservedTp == nil {
				t.Errorf("healthy worker should have a non-nil LastObservedTp")
			}
		}
		if ar.App == "crashy" {
			foundCrashed = true
			if ar.LastObservedTp != nil || ar.LastActualTp != nil {
				t.Errorf("crashed worker should have nil throughput fields, got observed=%v actual=%v", ar.LastObservedTp, ar.LastActualTp)
			}
		}
	}
	if !foundOK || !foundCrashed {
		t.Fatalf("expected both app rows present, got %+v", result.Apps)
	}
}

type crashingRuntime struct{}

func (c *crashingRuntime) RunBatch(ctx context.Context, batchSize int) (time.Duration, error) {
	return 0, errors.New("simulated device fault")
}
func (c *crashingRuntime) Synchronize(ctx context.Context) (time.Duration, error) { return 0, nil }
func (c *crashingRuntime) Close() error                                          { return nil }

func TestExecuteStreamsVDDTraceToCSV(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "vdd-trace.csv")

	specs := []workload.Spec{{App: "app1", TargetTp: 100, Device: workload.GPU}}
	params := baseParams(specs)
	params.Sampler = Sampler{TracePath: tracePath}

	Execute(context.Background(), params)

	data, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("reading trace file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected a header row plus at least one tick row, got %d lines: %q", len(lines), string(data))
	}

	header := strings.Split(lines[0], ",")
	if header[0] != "timestamp" {
		t.Errorf("expected header to start with timestamp, got %q", lines[0])
	}
	if len(header) != len(sensor.Rails)+1 {
		t.Errorf("expected %d header columns, got %d: %q", len(sensor.Rails)+1, len(header), lines[0])
	}

	row := strings.Split(lines[1], ",")
	if len(row) != len(header) {
		t.Errorf("expected tick row to match header width, got %d columns: %q", len(row), lines[1])
	}
}

func TestExecuteSensorFailureSkipsRailNotZero(t *testing.T) {
	mockSensor := sensor.NewMock(1)
	mockSensor.FailRail = sensor.VDDSoC

	specs := []workload.Spec{{App: "app1", TargetTp: 100, Device: workload.GPU}}
	params := baseParams(specs)
	params.Sensor = mockSensor

	result := Execute(context.Background(), params)
	if len(result.Apps) != 1 {
		t.Fatalf("expected 1 app result")
	}
	if _, ok := result.Apps[0].AvgPowerMilliwatt[sensor.VDDSoC]; ok {
		t.Errorf("failed rail should be absent from the averaged result, not zeroed")
	}
}
