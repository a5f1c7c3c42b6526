package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// Policy overrides the design parameters spec.md treats as constants. Every
// field has a default matching the original hardware's reference values, so
// an absent policy file (or an absent field within one) behaves exactly as
// the un-overridden spec. MAXNCPUIndices and GPUDevfreqNode drive the
// actuator and BaseCPUKHz is the CPU frequency restored on exit;
// DLACapacityPerCore and JitterFraction are decoded but not read by Decide
// or the mock runtime.
type Policy struct {
	DLACapacityPerCore int     `toml:"dla_capacity_per_core"`
	BaseCPUKHz         int64   `toml:"base_cpu_khz"`
	MAXNCPUIndices     []int   `toml:"maxn_cpu_indices"`
	GPUDevfreqNode     string  `toml:"gpu_devfreq_node"`
	JitterFraction     float64 `toml:"mock_runtime_jitter_fraction"`
}

// DefaultPolicy matches original_source/policy/{App,SysConfig}.py's hardcoded
// values: 16 DLA subgraph slots per core, base CPU frequency 729600 kHz, and
// the MAXN pair {0, 4} generalized to a configurable slice (spec.md §9 Open
// Question).
func DefaultPolicy() Policy {
	return Policy{
		DLACapacityPerCore: 16,
		BaseCPUKHz:         729600,
		MAXNCPUIndices:     []int{4},
		GPUDevfreqNode:     "17000000.ga10b",
		JitterFraction:     0.05,
	}
}

// LoadPolicy reads a TOML policy file, starting from DefaultPolicy and
// overwriting only the fields present in the file. A missing file is not an
// error: the caller gets DefaultPolicy() back unchanged.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	meta, err := toml.DecodeFile(path, &policy)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPolicy(), nil
		}
		return Policy{}, &ErrConfigParse{Path: path, Err: err}
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logrus.WithField("keys", undecoded).Warn("policy file has unrecognized keys")
	}

	return policy, nil
}
