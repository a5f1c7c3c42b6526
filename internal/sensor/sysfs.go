package sensor

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// railPath names the current/voltage hwmon node pair for one rail.
type railPath struct {
	CurrentPath string
	VoltagePath string
}

// Sysfs reads the three INA3221 hwmon rails at the paths
// original_source/policy/Stats.py hardcodes, rooted under a configurable
// BasePath for the same dev/test portability reason as actuator.Sysfs.
type Sysfs struct {
	BasePath string
	paths    map[Rail]railPath
}

// NewSysfs returns a Sysfs sensor rooted at basePath (default "/sys"),
// reading from the reference hardware's hwmon4 i2c node.
func NewSysfs(basePath string) *Sysfs {
	if basePath == "" {
		basePath = "/sys"
	}
	hwmon := basePath + "/bus/i2c/drivers/ina3221/1-0040/hwmon/hwmon4"
	return &Sysfs{
		BasePath: basePath,
		paths: map[Rail]railPath{
			VDDIn:       {CurrentPath: hwmon + "/curr1_input", VoltagePath: hwmon + "/in1_input"},
			VDDCPUGPUCV: {CurrentPath: hwmon + "/curr2_input", VoltagePath: hwmon + "/in2_input"},
			VDDSoC:      {CurrentPath: hwmon + "/curr3_input", VoltagePath: hwmon + "/in3_input"},
		},
	}
}

func (s *Sysfs) ReadRail(_ context.Context, rail Rail) (Reading, error) {
	p, ok := s.paths[rail]
	if !ok {
		return Reading{}, &ErrReadFailed{Rail: rail, Err: fmt.Errorf("unknown rail")}
	}

	curr, err := readInt(p.CurrentPath)
	if err != nil {
		return Reading{}, &ErrReadFailed{Rail: rail, Err: err}
	}
	volt, err := readInt(p.VoltagePath)
	if err != nil {
		return Reading{}, &ErrReadFailed{Rail: rail, Err: err}
	}

	return Reading{CurrentMicroamp: curr, VoltageMillivolt: volt}, nil
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}
