package actuator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sysfs is the real FrequencyActuator, writing the same control files as
// original_source/policy/SysConfig.py. BasePath defaults to "/sys" and is
// overridable (internal/config/env.go wires POLICYD_ACTUATOR_BASE_PATH) so tests and
// CI can point it at a fake tree instead of the real kernel sysfs.
type Sysfs struct {
	BasePath string

	GPUDevfreqNode string // e.g. "17000000.ga10b"
}

// NewSysfs returns a Sysfs actuator rooted at basePath, defaulting to
// "/sys" and the reference hardware's GPU devfreq node when empty.
func NewSysfs(basePath, gpuDevfreqNode string) *Sysfs {
	if basePath == "" {
		basePath = "/sys"
	}
	if gpuDevfreqNode == "" {
		gpuDevfreqNode = "17000000.ga10b"
	}
	return &Sysfs{BasePath: basePath, GPUDevfreqNode: gpuDevfreqNode}
}

func (s *Sysfs) cpuPath(cpuIndex int, leaf string) string {
	return fmt.Sprintf("%s/devices/system/cpu/cpu%d/cpufreq/%s", s.BasePath, cpuIndex, leaf)
}

func (s *Sysfs) gpuPath(leaf string) string {
	return fmt.Sprintf("%s/devices/gpu.0/devfreq/%s/%s", s.BasePath, s.GPUDevfreqNode, leaf)
}

func (s *Sysfs) write(path, value string) error {
	err := os.WriteFile(path, []byte(value), 0o644)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrPermission):
		return &ErrPermissionDenied{Path: path, Err: err}
	case errors.Is(err, os.ErrNotExist):
		return &ErrPathMissing{Path: path, Err: err}
	default:
		return fmt.Errorf("writing %s: %w", path, err)
	}
}

func (s *Sysfs) read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &ErrPathMissing{Path: path, Err: err}
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Sysfs) logWrite(path, value string, err error) {
	fields := logrus.Fields{"path": path, "value": value}
	if err != nil {
		logrus.WithFields(fields).WithError(err).Warn("frequency actuator write failed; continuing with governor default")
		return
	}
	logrus.WithFields(fields).Debug("frequency actuator write")
}

func (s *Sysfs) SetCPUGovernor(_ context.Context, cpuIndex int, governor string) error {
	path := s.cpuPath(cpuIndex, "scaling_governor")
	err := s.write(path, governor)
	s.logWrite(path, governor, err)
	return err
}

func (s *Sysfs) SetCPUFreq(_ context.Context, cpuIndex int, khz int64) error {
	path := s.cpuPath(cpuIndex, "scaling_setspeed")
	value := strconv.FormatInt(khz, 10)
	err := s.write(path, value)
	s.logWrite(path, value, err)
	return err
}

func (s *Sysfs) SetCPUFreqMin(_ context.Context, cpuIndex int, khz int64) error {
	path := s.cpuPath(cpuIndex, "scaling_min_freq")
	value := strconv.FormatInt(khz, 10)
	err := s.write(path, value)
	s.logWrite(path, value, err)
	return err
}

func (s *Sysfs) SetCPUFreqMax(_ context.Context, cpuIndex int, khz int64) error {
	path := s.cpuPath(cpuIndex, "scaling_max_freq")
	value := strconv.FormatInt(khz, 10)
	err := s.write(path, value)
	s.logWrite(path, value, err)
	return err
}

func (s *Sysfs) SetGPUFreqMin(_ context.Context, hz int64) error {
	path := s.gpuPath("min_freq")
	value := strconv.FormatInt(hz, 10)
	err := s.write(path, value)
	s.logWrite(path, value, err)
	return err
}

func (s *Sysfs) SetGPUFreqMax(_ context.Context, hz int64) error {
	path := s.gpuPath("max_freq")
	value := strconv.FormatInt(hz, 10)
	err := s.write(path, value)
	s.logWrite(path, value, err)
	return err
}

func (s *Sysfs) ReadCPUFreq(_ context.Context, cpuIndex int) (int64, error) {
	raw, err := s.read(s.cpuPath(cpuIndex, "scaling_cur_freq"))
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *Sysfs) ReadGPUFreq(_ context.Context) (int64, error) {
	raw, err := s.read(s.gpuPath("cur_freq"))
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
