package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPolicyDefaults(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if policy.DLACapacityPerCore != 16 {
		t.Errorf("DLACapacityPerCore = %d, want 16", policy.DLACapacityPerCore)
	}
	if policy.BaseCPUKHz != 729600 {
		t.Errorf("BaseCPUKHz = %d, want 729600", policy.BaseCPUKHz)
	}
	if len(policy.MAXNCPUIndices) != 1 || policy.MAXNCPUIndices[0] != 4 {
		t.Errorf("MAXNCPUIndices = %v, want [4]", policy.MAXNCPUIndices)
	}
}

func TestLoadPolicyOverridesSubset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.toml")
	if err := os.WriteFile(path, []byte(`
dla_capacity_per_core = 20
maxn_cpu_indices = [4, 5, 6]
`), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if policy.DLACapacityPerCore != 20 {
		t.Errorf("DLACapacityPerCore = %d, want 20 (overridden)", policy.DLACapacityPerCore)
	}
	if policy.BaseCPUKHz != 729600 {
		t.Errorf("BaseCPUKHz = %d, want 729600 (default preserved)", policy.BaseCPUKHz)
	}
	if len(policy.MAXNCPUIndices) != 3 {
		t.Errorf("MAXNCPUIndices = %v, want 3 entries", policy.MAXNCPUIndices)
	}
}

func TestLoadPolicyMissingFileReturnsDefaults(t *testing.T) {
	policy, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if policy.DLACapacityPerCore != DefaultPolicy().DLACapacityPerCore {
		t.Errorf("expected defaults for missing file")
	}
}
