package profile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/ladder"
)

// Store reads immutable per-app profile records from a directory laid out
// as:
//
//	<base>/<app>/<app>.json   engine-info record (name, input_shape, output_shapes)
//	<base>/<app>/<app>.csv    perf table (Device, Frequency, Throughput, VDD_CPU_GPU_CV_Avg)
//	<base>/<app>/<app>.log    TensorRT build log ("[DlaLayer]" lines list the DLA subgraphs)
//	<base>/slowdowns.json     shared slowdown table, keyed by app name
type Store struct {
	BaseDir string
}

// NewStore returns a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

type engineInfo struct {
	Name         string `json:"name"`
	InputShape   string `json:"input_shape"`
	OutputShapes string `json:"output_shapes"`
}

// LoadApp reads the app's shape record, perf CSV, and the shared slowdown
// table, returning an assembled Profile or a ProfileNotFound /
// ProfileMalformed / SlowdownMissing error.
func (s *Store) LoadApp(name string) (Profile, error) {
	appDir := filepath.Join(s.BaseDir, name)

	info, err := s.readEngineInfo(name, filepath.Join(appDir, name+".json"))
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		Name:          name,
		InputShape:    info.inputShape,
		OutputShapes:  info.outputShapes,
		Throughput:    map[Device]map[int64]float64{GPU: {}, DLA: {}},
		Power:         map[Device]map[int64]float64{GPU: {}, DLA: {}},
		MaxThroughput: map[Device]float64{GPU: 0, DLA: 0},
		PpwRatio:      map[int64]float64{},
	}

	if err := s.readPerfCSV(&p, filepath.Join(appDir, name+".csv")); err != nil {
		return Profile{}, err
	}
	if err := s.readDLASubgraphs(&p, filepath.Join(appDir, name+".log")); err != nil {
		return Profile{}, err
	}
	if err := s.readSlowdown(&p, filepath.Join(s.BaseDir, "slowdowns.json")); err != nil {
		return Profile{}, err
	}

	for freq := range p.Throughput[DLA] {
		ppw := perfPerWatt(p.Throughput[DLA][freq], p.Power[DLA][freq])
		gpuPpw := perfPerWatt(p.Throughput[GPU][freq], p.Power[GPU][freq])
		if gpuPpw == 0 {
			continue
		}
		p.PpwRatio[freq] = ppw / gpuPpw
	}

	logrus.WithFields(logrus.Fields{
		"app":           name,
		"dla_subgraphs": len(p.DLASubgraphs),
		"avg_ppw_ratio": AvgPpwRatio(p),
	}).Debug("profile loaded")

	return p, nil
}

func perfPerWatt(throughput, power float64) float64 {
	if power == 0 {
		return 0
	}
	return throughput / power
}

type parsedEngineInfo struct {
	inputShape   []int
	outputShapes [][]int
}

func (s *Store) readEngineInfo(name, path string) (parsedEngineInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return parsedEngineInfo{}, &ErrProfileNotFound{App: name, Path: path}
		}
		return parsedEngineInfo{}, fmt.Errorf("reading engine info for %q: %w", name, err)
	}

	var ei engineInfo
	if err := json.Unmarshal(data, &ei); err != nil {
		return parsedEngineInfo{}, &ErrProfileMalformed{App: name, Reason: fmt.Sprintf("invalid engine-info json: %v", err)}
	}

	inputShape, err := parseIntTuple(ei.InputShape, ",")
	if err != nil {
		return parsedEngineInfo{}, &ErrProfileMalformed{App: name, Reason: fmt.Sprintf("invalid input_shape %q: %v", ei.InputShape, err)}
	}

	var outputShapes [][]int
	for _, part := range strings.Split(ei.OutputShapes, ";") {
		shape, err := parseIntTuple(part, ",")
		if err != nil {
			return parsedEngineInfo{}, &ErrProfileMalformed{App: name, Reason: fmt.Sprintf("invalid output_shapes %q: %v", ei.OutputShapes, err)}
		}
		outputShapes = append(outputShapes, shape)
	}

	return parsedEngineInfo{inputShape: inputShape, outputShapes: outputShapes}, nil
}

func parseIntTuple(s, sep string) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(s, sep) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// readPerfCSV parses the CSV columns Device, Frequency, Throughput,
// VDD_CPU_GPU_CV_Avg, accumulating throughput/power/max-throughput per
// device. Device values containing "dla" (e.g. "dla0", "dla1") collapse to
// the single DLA device bucket, matching the profile's device-agnostic
// throughput table (spec.md §3: placement onto DLA0 vs DLA1 is a Decide/
// capacity concern, not a profile concern).
func (s *Store) readPerfCSV(p *Profile, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ErrProfileNotFound{App: p.Name, Path: path}
		}
		return fmt.Errorf("opening perf csv for %q: %w", p.Name, err)
	}
	defer f.Close() //nolint:errcheck // read-only file; close error is not actionable

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("reading csv header: %v", err)}
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, want := range []string{"Device", "Frequency", "Throughput", "VDD_CPU_GPU_CV_Avg"} {
		if _, ok := cols[want]; !ok {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("perf csv missing column %q", want)}
		}
	}

	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("perf csv row %d: %v", rowIdx, err)}
		}

		deviceRaw := strings.ToLower(record[cols["Device"]])
		device := GPU
		if strings.Contains(deviceRaw, "dla") {
			device = DLA
		}

		freq, err := strconv.ParseInt(record[cols["Frequency"]], 10, 64)
		if err != nil {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("perf csv row %d: bad frequency: %v", rowIdx, err)}
		}
		if !freqOnGPULadder(freq) {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("perf csv row %d: frequency %d not on GPU ladder", rowIdx, freq)}
		}

		throughput, err := strconv.ParseFloat(record[cols["Throughput"]], 64)
		if err != nil {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("perf csv row %d: bad throughput: %v", rowIdx, err)}
		}
		power, err := strconv.ParseFloat(record[cols["VDD_CPU_GPU_CV_Avg"]], 64)
		if err != nil {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("perf csv row %d: bad power: %v", rowIdx, err)}
		}

		p.Throughput[device][freq] = throughput
		p.Power[device][freq] = power
		if throughput > p.MaxThroughput[device] {
			p.MaxThroughput[device] = throughput
		}
		rowIdx++
	}
	return nil
}

func freqOnGPULadder(freq int64) bool {
	for _, f := range ladder.GPU {
		if f == freq {
			return true
		}
	}
	return false
}

// readDLASubgraphs reads the ordered list of DLA-mappable subgraph names
// from a TensorRT build log, one per "[DlaLayer]" line, mirroring
// original_source/policy/App.py.read_engine_log. A missing log is
// ErrProfileNotFound. A log with no "[DlaLayer]" lines gives an empty list,
// meaning the app always fits within any DLA core's remaining capacity
// (Decide will not choose DLA for it unless its ppw ratio says otherwise).
func (s *Store) readDLASubgraphs(p *Profile, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ErrProfileNotFound{App: p.Name, Path: path}
		}
		return fmt.Errorf("reading dla subgraph log for %q: %w", p.Name, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if idx := strings.Index(line, "[DlaLayer]"); idx >= 0 {
			p.DLASubgraphs = append(p.DLASubgraphs, strings.TrimSpace(line[idx+len("[DlaLayer]"):]))
		}
	}
	return nil
}

func (s *Store) readSlowdown(p *Profile, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ErrProfileNotFound{App: p.Name, Path: path}
		}
		return fmt.Errorf("reading slowdown table: %w", err)
	}

	var table map[string]map[string]float64
	if err := json.Unmarshal(data, &table); err != nil {
		return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("invalid slowdown json: %v", err)}
	}

	entry, ok := table[p.Name]
	if !ok {
		return &ErrSlowdownMissing{App: p.Name}
	}

	p.Slowdown = map[int]float64{}
	for nStr, frac := range entry {
		n, err := strconv.Atoi(nStr)
		if err != nil {
			return &ErrProfileMalformed{App: p.Name, Reason: fmt.Sprintf("invalid slowdown key %q: %v", nStr, err)}
		}
		p.Slowdown[n] = frac
	}
	return nil
}
