package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Env overrides the sysfs base paths consumed by internal/actuator and
// internal/sensor, so both can be pointed at a fake sysfs tree in CI instead
// of the real one.
type Env struct {
	ActuatorBasePath string
	SensorBasePath   string
}

const (
	envActuatorBasePath = "POLICYD_ACTUATOR_BASE_PATH"
	envSensorBasePath   = "POLICYD_SENSOR_BASE_PATH"
)

// LoadEnv loads dotenvPath (if non-empty) into the process environment via
// godotenv, then reads the override variables. A missing dotenv file is not
// an error — plain process environment variables still apply.
func LoadEnv(dotenvPath string) Env {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", dotenvPath).Warn("failed to load env overrides file")
		}
	}

	return Env{
		ActuatorBasePath: os.Getenv(envActuatorBasePath),
		SensorBasePath:   os.Getenv(envSensorBasePath),
	}
}
