package supervisor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/actuator"
	"github.com/edge-dvfs/policyd/internal/sensor"
)

// run samples every rail at samplerInterval and emits a SamplerRecord every
// heartbeatInterval, after first synchronizing on barrier. A per-tick rail
// read failure is logged and that rail's partial sum is left unchanged for
// the tick — no zero injection (spec.md §7). When s.TracePath is set, every
// raw per-tick reading is additionally streamed to that CSV file.
func (s Sampler) run(ctx context.Context, samplerInterval, heartbeatInterval time.Duration, sens sensor.PowerSensor, act actuator.FrequencyActuator, cpuIndex int, barrier *Barrier) []SamplerRecord {
	barrier.Wait()

	var tracer *traceWriter
	if s.TracePath != "" {
		tw, err := newTraceWriter(s.TracePath)
		if err != nil {
			logrus.WithError(err).Warn("failed to open VDD trace file; continuing without tracing")
		} else {
			tracer = tw
			defer tracer.Close() //nolint:errcheck // best-effort close at Run end
		}
	}

	var records []SamplerRecord
	partialSum := map[sensor.Rail]float64{}
	partialCount := map[sensor.Rail]int{}
	lastHB := time.Now()

	ticker := time.NewTicker(samplerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return records
		case <-ticker.C:
		}

		tick := map[sensor.Rail]float64{}
		for _, rail := range sensor.Rails {
			reading, err := sens.ReadRail(ctx, rail)
			if err != nil {
				logrus.WithError(err).WithField("rail", rail).Warn("sensor read failed; skipping rail for this tick")
				continue
			}
			tick[rail] = reading.PowerMilliwatt()
			partialSum[rail] += reading.PowerMilliwatt()
			partialCount[rail]++
		}
		if tracer != nil {
			if err := tracer.writeTick(time.Now(), tick); err != nil {
				logrus.WithError(err).Warn("failed to append VDD trace row")
			}
		}

		if time.Since(lastHB) >= heartbeatInterval {
			avg := map[sensor.Rail]float64{}
			for _, rail := range sensor.Rails {
				if partialCount[rail] > 0 {
					avg[rail] = partialSum[rail] / float64(partialCount[rail])
				}
			}
			cpuFreq, err := act.ReadCPUFreq(ctx, cpuIndex)
			if err != nil {
				logrus.WithError(err).Debug("sampler could not read back CPU frequency")
			}
			gpuFreq, err := act.ReadGPUFreq(ctx)
			if err != nil {
				logrus.WithError(err).Debug("sampler could not read back GPU frequency")
			}

			records = append(records, SamplerRecord{AvgPowerMilliwatt: avg, CPUFreq: cpuFreq, GPUFreq: gpuFreq})
			partialSum = map[sensor.Rail]float64{}
			partialCount = map[sensor.Rail]int{}
			lastHB = time.Now()
		}
	}
}
