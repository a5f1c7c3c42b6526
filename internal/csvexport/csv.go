// Package csvexport writes one Run Result to the fixed-column CSV format
// spec.md §6 defines, atomically via google/renameio so a reader never sees
// a partially-written file.
package csvexport

import (
	"encoding/csv"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
)

// Header is the fixed column order spec.md §6 mandates.
var Header = []string{
	"engine_name", "device", "cpu", "gpu", "target", "throughput",
	"actual_throughput", "vdd_in", "vdd_cpu_gpu_cv", "vdd_soc",
	"run_gpu_freq", "run_cpu0_freq", "run_cpu4_freq",
}

// Write renders result as a CSV at path, one row per app, atomically
// replacing any existing file. Floats are formatted to two decimals.
func Write(path string, result supervisor.RunResult) error {
	pendingFile, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending csv file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logrus.WithError(err).WithField("path", path).Debug("cleanup pending csv file")
		}
	}()

	w := csv.NewWriter(pendingFile)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, ar := range result.Apps {
		row := []string{
			ar.App,
			string(ar.Device),
			f2(float64(ar.ProgrammedCPU)),
			f2(float64(ar.ProgrammedGPU)),
			f2(ar.TargetTp),
			f2(deref(ar.LastObservedTp)),
			f2(deref(ar.LastActualTp)),
			f2(ar.AvgPowerMilliwatt[sensor.VDDIn]),
			f2(ar.AvgPowerMilliwatt[sensor.VDDCPUGPUCV]),
			f2(ar.AvgPowerMilliwatt[sensor.VDDSoC]),
			f2(float64(ar.RunGPUFreq)),
			f2(float64(ar.RunCPUFreq)),
			// The actuator mirrors the same CPU frequency to every MAXN
			// index (internal/actuator.Program), so cpu0 and cpu4 read back
			// identically; the Sampler only samples the primary index back.
			f2(float64(ar.RunCPUFreq)),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %q: %w", ar.App, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace csv file: %w", err)
	}

	logrus.WithFields(logrus.Fields{"path": path, "rows": len(result.Apps)}).Info("run result exported")
	return nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
