package supervisor

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/edge-dvfs/policyd/internal/sensor"
)

// Sampler configures the rail-power sampling loop beyond the plain
// interval/heartbeat pacing Params already carries. TracePath, when
// non-empty, streams every raw per-tick rail reading to a CSV file for
// offline power-trace analysis — grounded in
// original_source/policy/Stats.py's csvpath parameter, which appends one
// row per sample independently of the heartbeat-scale SamplerRecord
// aggregation Sampler.run also produces.
type Sampler struct {
	TracePath string
}

var traceHeader = append([]string{"timestamp"}, railHeader()...)

func railHeader() []string {
	h := make([]string, len(sensor.Rails))
	for i, r := range sensor.Rails {
		h[i] = string(r)
	}
	return h
}

// traceWriter appends one row per sampler tick to TracePath. Unlike
// csvexport.Write's atomic replace, a trace is a continuously growing log,
// not a single final artifact, so it is opened once for the life of the
// Run and appended to directly.
type traceWriter struct {
	f *os.File
	w *csv.Writer
}

func newTraceWriter(path string) (*traceWriter, error) {
	info, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening trace file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if statErr != nil || info.Size() == 0 {
		if err := w.Write(traceHeader); err != nil {
			f.Close() //nolint:errcheck // best-effort close on the error path
			return nil, fmt.Errorf("writing trace header: %w", err)
		}
		w.Flush()
	}

	return &traceWriter{f: f, w: w}, nil
}

func (t *traceWriter) writeTick(ts time.Time, readings map[sensor.Rail]float64) error {
	row := make([]string, 0, len(sensor.Rails)+1)
	row = append(row, ts.UTC().Format(time.RFC3339Nano))
	for _, rail := range sensor.Rails {
		row = append(row, fmt.Sprintf("%.2f", readings[rail]))
	}
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

func (t *traceWriter) Close() error {
	t.w.Flush()
	return t.f.Close()
}
