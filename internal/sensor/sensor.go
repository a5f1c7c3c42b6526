// Package sensor abstracts the power telemetry source: three (current,
// voltage) rail pairs read over sysfs/i2c hwmon nodes, grounded in
// original_source/policy/Stats.py's vddpaths table.
package sensor

import "context"

// Rail identifies one of the three voltage-domain power rails the
// reference hardware exposes.
type Rail string

const (
	VDDIn        Rail = "VDD_IN"
	VDDCPUGPUCV  Rail = "VDD_CPU_GPU_CV"
	VDDSoC       Rail = "VDD_SOC"
)

// Rails lists all rails in a fixed, stable order — used wherever output
// needs deterministic column ordering (CSV export, log fields).
var Rails = []Rail{VDDIn, VDDCPUGPUCV, VDDSoC}

// Reading is one instantaneous (current µA, voltage mV) pair for a rail.
type Reading struct {
	CurrentMicroamp int64
	VoltageMillivolt int64
}

// PowerMilliwatt computes instantaneous power in mW: current(µA) *
// voltage(mV) / 1000, matching Stats.py's `curr * (volt/1000.0)`.
func (r Reading) PowerMilliwatt() float64 {
	return float64(r.CurrentMicroamp) * float64(r.VoltageMillivolt) / 1000.0
}

// PowerSensor is the read-only telemetry capability the Sampler drives. It
// is read concurrently only by the sampler (spec.md §5): no other context
// ever calls these methods during a Run.
type PowerSensor interface {
	ReadRail(ctx context.Context, rail Rail) (Reading, error)
}
