// Package actuator abstracts the sysfs writes that program CPU governor,
// CPU frequency, and GPU min/max frequency, grounded in
// original_source/policy/SysConfig.py's path layout and permission/missing
// -path error handling.
package actuator

import (
	"context"
	"errors"
)

// FrequencyActuator is the process-wide capability the Supervisor owns
// exclusively; all frequency writes funnel through one implementation so
// policy and mock back-ends are swappable (spec.md §9).
type FrequencyActuator interface {
	// SetCPUGovernor sets the scaling governor for cpuIndex to governor
	// (the Supervisor always passes "userspace" before a manual frequency
	// write, matching SysConfig.py's __SetCPUFreq).
	SetCPUGovernor(ctx context.Context, cpuIndex int, governor string) error
	// SetCPUFreq writes the userspace scaling_setspeed target.
	SetCPUFreq(ctx context.Context, cpuIndex int, khz int64) error
	SetCPUFreqMin(ctx context.Context, cpuIndex int, khz int64) error
	SetCPUFreqMax(ctx context.Context, cpuIndex int, khz int64) error

	SetGPUFreqMin(ctx context.Context, hz int64) error
	SetGPUFreqMax(ctx context.Context, hz int64) error

	// ReadCPUFreq and ReadGPUFreq report the last-observed actual frequency,
	// used by the sampler for its heartbeat-attached frequency readings.
	ReadCPUFreq(ctx context.Context, cpuIndex int) (int64, error)
	ReadGPUFreq(ctx context.Context) (int64, error)
}

// Program writes cpuFreq/gpuFreq to the primary CPU index (0) and, when
// maxnCPUIndices is non-empty, to every additional dual-cluster index too —
// generalizing original_source's hardcoded second index (4) into a
// configurable list per spec.md §9's open question. Errors from any single
// write are collected and returned together; a failed write on one index
// does not prevent attempting the others.
func Program(ctx context.Context, a FrequencyActuator, cpuFreq, gpuFreq int64, maxnCPUIndices []int) error {
	indices := append([]int{0}, maxnCPUIndices...)

	var errs []error
	for _, idx := range indices {
		if err := a.SetCPUGovernor(ctx, idx, "userspace"); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.SetCPUFreq(ctx, idx, cpuFreq); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.SetGPUFreqMin(ctx, gpuFreq); err != nil {
		errs = append(errs, err)
	}
	if err := a.SetGPUFreqMax(ctx, gpuFreq); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Restore returns the device to the base CPU frequency and the lowest GPU
// frequency, mirroring SysConfig.py.restore_sysconfig's call at the end of
// main(). Called once on clean CLI exit.
func Restore(ctx context.Context, a FrequencyActuator, baseCPUFreq, minGPUFreq int64, maxnCPUIndices []int) error {
	return Program(ctx, a, baseCPUFreq, minGPUFreq, maxnCPUIndices)
}
