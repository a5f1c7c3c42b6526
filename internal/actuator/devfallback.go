package actuator

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DevFallback wraps a FrequencyActuator (normally a Sysfs instance) and
// falls back to gopsutil's cross-platform CPU frequency reporting when the
// wrapped actuator's ReadCPUFreq hits a missing sysfs path — letting the
// policy run and log plausible numbers on a development machine that has
// no Jetson-style cpufreq tree, without pretending those numbers came from
// the actuated device.
type DevFallback struct {
	FrequencyActuator
}

// NewDevFallback wraps inner with a gopsutil-backed read fallback.
func NewDevFallback(inner FrequencyActuator) *DevFallback {
	return &DevFallback{FrequencyActuator: inner}
}

func (d *DevFallback) ReadCPUFreq(ctx context.Context, cpuIndex int) (int64, error) {
	freq, err := d.FrequencyActuator.ReadCPUFreq(ctx, cpuIndex)
	if err == nil {
		return freq, nil
	}
	var missing *ErrPathMissing
	if !errors.As(err, &missing) {
		return 0, err
	}

	infos, infoErr := cpu.InfoWithContext(ctx)
	if infoErr != nil || len(infos) == 0 {
		return 0, err
	}
	idx := cpuIndex
	if idx >= len(infos) {
		idx = 0
	}
	return int64(infos[idx].Mhz * 1000), nil
}
