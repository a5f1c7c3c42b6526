// Package config reads the three file formats that drive a policyd Run: the
// models/frequencies Config file, the Apps (Decide input) file, and a TOML
// policy-constants file that overrides the design parameters spec.md treats
// as hardcoded. It also carries environment and hot-reload glue so the same
// files can be pointed at a fake sysfs tree in CI or watched for live
// updates.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/workload"
)

// ModelEntry is one engine entry from the Config file's "models" array.
type ModelEntry struct {
	Name       string `json:"name"`
	EnginePath string `json:"enginepath"`
	EngineInfo string `json:"engineinfo"`
	Device     workload.Device
	Throughput float64 `json:"throughput"`
}

type modelEntryJSON struct {
	Name       string  `json:"name"`
	EnginePath string  `json:"enginepath"`
	EngineInfo string  `json:"engineinfo"`
	Device     string  `json:"device"`
	Throughput float64 `json:"throughput"`
}

// Frequencies is the Config file's optional "frequencies" block. A nil
// Cpu/Gpu means "let Decide choose"; MAXN selects the dual-cluster write
// path (spec.md §5's MAXN mode).
type Frequencies struct {
	CPU  *int64
	GPU  *int64
	MAXN bool
}

type frequenciesJSON struct {
	CPU  *int64 `json:"cpu"`
	GPU  *int64 `json:"gpu"`
	MAXN bool   `json:"maxn"`
}

// Config is the parsed Config file (spec.md §6): the frequency overrides
// plus one ModelEntry per app to run this invocation.
type Config struct {
	Frequencies Frequencies
	Models      []ModelEntry
}

type configJSON struct {
	Frequencies frequenciesJSON  `json:"frequencies"`
	Models      []modelEntryJSON `json:"models"`
}

// LoadConfig reads and validates the Config file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &ErrConfigParse{Path: path, Err: err}
	}

	var raw configJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, &ErrConfigParse{Path: path, Err: err}
	}

	cfg := Config{
		Frequencies: Frequencies{CPU: raw.Frequencies.CPU, GPU: raw.Frequencies.GPU, MAXN: raw.Frequencies.MAXN},
	}
	for _, m := range raw.Models {
		device, err := parseDevice(m.Device)
		if err != nil {
			return Config{}, &ErrConfigParse{Path: path, Err: fmt.Errorf("model %q: %w", m.Name, err)}
		}
		cfg.Models = append(cfg.Models, ModelEntry{
			Name:       m.Name,
			EnginePath: m.EnginePath,
			EngineInfo: m.EngineInfo,
			Device:     device,
			Throughput: m.Throughput,
		})
	}

	logrus.WithFields(logrus.Fields{"path": path, "models": len(cfg.Models)}).Debug("config loaded")
	return cfg, nil
}

func parseDevice(raw string) (workload.Device, error) {
	switch strings.ToUpper(raw) {
	case "GPU":
		return workload.GPU, nil
	case "DLA0":
		return workload.DLA0, nil
	case "DLA1":
		return workload.DLA1, nil
	default:
		return "", fmt.Errorf("unknown device %q", raw)
	}
}

// AppRequest is one entry from the Apps file: an app name and its target
// throughput, exactly Decide's Request shape before profile loading.
type AppRequest struct {
	Name     string
	TargetTp float64
}

type appRequestJSON struct {
	Name string  `json:"name"`
	Tp   float64 `json:"tp"`
}

type appsFileJSON struct {
	Apps []appRequestJSON `json:"apps"`
}

// LoadApps reads the Apps file (spec.md §6, Decide input).
func LoadApps(path string) ([]AppRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ErrConfigParse{Path: path, Err: err}
	}

	var raw appsFileJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ErrConfigParse{Path: path, Err: err}
	}

	requests := make([]AppRequest, 0, len(raw.Apps))
	for _, a := range raw.Apps {
		if a.Name == "" {
			return nil, &ErrConfigParse{Path: path, Err: fmt.Errorf("app entry missing name")}
		}
		requests = append(requests, AppRequest{Name: a.Name, TargetTp: a.Tp})
	}
	return requests, nil
}
