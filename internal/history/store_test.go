package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
	"github.com/edge-dvfs/policyd/internal/workload"
)

func TestRecordRunAndAppHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "policyd.db")
	store, err := Open(dbPath)
	require.NoError(t, err, "Open")
	defer store.Close()

	observed := 100.0
	actual := 101.5
	runID := uuid.New()
	result := supervisor.RunResult{
		RunID: runID,
		Apps: []supervisor.AppResult{
			{
				App: "resnet", Device: workload.GPU, TargetTp: 100,
				ProgrammedCPU: 729600, ProgrammedGPU: 408000000,
				LastObservedTp: &observed, LastActualTp: &actual,
				AvgPowerMilliwatt: map[sensor.Rail]float64{sensor.VDDIn: 5000},
				RunCPUFreq:        729600,
				RunGPUFreq:        408000000,
			},
		},
	}

	ctx := context.Background()
	require.NoError(t, store.RecordRun(ctx, result), "RecordRun")

	rows, err := store.AppHistory(ctx, "resnet")
	require.NoError(t, err, "AppHistory")
	require.Len(t, rows, 1)
	require.Equal(t, runID.String(), rows[0].RunID)
	require.NotNil(t, rows[0].LastObservedTp)
	require.Equal(t, 100.0, *rows[0].LastObservedTp)
}

func TestRecordRunCrashedAppHasNullThroughput(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "policyd.db")
	store, err := Open(dbPath)
	require.NoError(t, err, "Open")
	defer store.Close()

	ctx := context.Background()
	result := supervisor.RunResult{
		RunID: uuid.New(),
		Apps:  []supervisor.AppResult{{App: "crashy", Device: workload.GPU, TargetTp: 50}},
	}
	require.NoError(t, store.RecordRun(ctx, result), "RecordRun")

	rows, err := store.AppHistory(ctx, "crashy")
	require.NoError(t, err, "AppHistory")
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].LastObservedTp)
}

func TestRecordRefine(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "policyd.db")
	store, err := Open(dbPath)
	require.NoError(t, err, "Open")
	defer store.Close()

	runID := uuid.New()
	require.NoError(t, store.RecordRefine(context.Background(), runID, 729600, 408000000, 883200, 510000000))
}
