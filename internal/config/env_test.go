package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFromDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(
		"POLICYD_ACTUATOR_BASE_PATH=/tmp/fake-sys\nPOLICYD_SENSOR_BASE_PATH=/tmp/fake-sys\n",
	), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	// godotenv never overrides a variable that is already set, even to "",
	// so the variables are removed (t.Setenv restores them afterwards).
	t.Setenv("POLICYD_ACTUATOR_BASE_PATH", "")
	t.Setenv("POLICYD_SENSOR_BASE_PATH", "")
	os.Unsetenv("POLICYD_ACTUATOR_BASE_PATH")
	os.Unsetenv("POLICYD_SENSOR_BASE_PATH")

	env := LoadEnv(path)
	if env.ActuatorBasePath != "/tmp/fake-sys" {
		t.Errorf("ActuatorBasePath = %q, want /tmp/fake-sys", env.ActuatorBasePath)
	}
	if env.SensorBasePath != "/tmp/fake-sys" {
		t.Errorf("SensorBasePath = %q, want /tmp/fake-sys", env.SensorBasePath)
	}
}

func TestLoadEnvMissingFileFallsBackToProcessEnv(t *testing.T) {
	t.Setenv("POLICYD_ACTUATOR_BASE_PATH", "/already/set")

	env := LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	if env.ActuatorBasePath != "/already/set" {
		t.Errorf("ActuatorBasePath = %q, want /already/set", env.ActuatorBasePath)
	}
}
