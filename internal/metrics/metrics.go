// Package metrics instruments the Execution Supervisor and Refine
// Controller with Prometheus gauges/counters, grounded in the teacher
// pack's own promauto-based metrics package (ManuGH-xg2g/internal/metrics).
// Removing this package must not change Execute's return value (spec.md
// §4.3 in SPEC_FULL.md) — every method is a side effect only.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
)

// Recorder implements supervisor.Observer, publishing every heartbeat,
// sampler tick, and crash as Prometheus series labeled by app/rail.
type Recorder struct {
	reg *prometheus.Registry

	observedTp *prometheus.GaugeVec
	actualTp   *prometheus.GaugeVec
	crashesTot *prometheus.CounterVec
	railPower  *prometheus.GaugeVec
	cpuFreq    prometheus.Gauge
	gpuFreq    prometheus.Gauge
	refineTot  prometheus.Counter
}

// NewRecorder builds a Recorder against a fresh registry, so multiple Runs
// within one process (e.g. `run --watch`) can reuse the same gauges without
// re-registration panics from promauto's default global registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg: reg,
		observedTp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "policyd_worker_observed_throughput",
			Help: "Most recent observed throughput (images/sec) per app.",
		}, []string{"app"}),
		actualTp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "policyd_worker_actual_throughput",
			Help: "Most recent device-time throughput (images/sec) per app.",
		}, []string{"app"}),
		crashesTot: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policyd_worker_crashes_total",
			Help: "Total inference runtime crashes per app.",
		}, []string{"app"}),
		railPower: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "policyd_rail_power_milliwatt",
			Help: "Most recent averaged rail power in milliwatts.",
		}, []string{"rail"}),
		cpuFreq: factory.NewGauge(prometheus.GaugeOpts{
			Name: "policyd_cpu_frequency_khz",
			Help: "CPU frequency in kHz read back by the sampler at its last heartbeat.",
		}),
		gpuFreq: factory.NewGauge(prometheus.GaugeOpts{
			Name: "policyd_gpu_frequency_hz",
			Help: "GPU frequency in Hz read back by the sampler at its last heartbeat.",
		}),
		refineTot: factory.NewCounter(prometheus.CounterOpts{
			Name: "policyd_refine_transitions_total",
			Help: "Total number of Refine frequency transitions applied.",
		}),
	}
}

// Registry exposes the underlying registry for the HTTP server's
// promhttp.HandlerFor call.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) WorkerHeartbeat(app string, hb supervisor.Heartbeat) {
	r.observedTp.WithLabelValues(app).Set(hb.ObservedTp)
	r.actualTp.WithLabelValues(app).Set(hb.ActualTp)
}

func (r *Recorder) SamplerTick(rec supervisor.SamplerRecord) {
	for _, rail := range sensor.Rails {
		if v, ok := rec.AvgPowerMilliwatt[rail]; ok {
			r.railPower.WithLabelValues(string(rail)).Set(v)
		}
	}
	r.cpuFreq.Set(float64(rec.CPUFreq))
	r.gpuFreq.Set(float64(rec.GPUFreq))
}

func (r *Recorder) WorkerCrashed(app string, _ error) {
	r.crashesTot.WithLabelValues(app).Inc()
}

// RefineApplied records one Refine transition; called by cmd/run after
// each Refine.Step, not by the Supervisor itself (Refine runs between Runs,
// outside Execute).
func (r *Recorder) RefineApplied() {
	r.refineTot.Inc()
}
