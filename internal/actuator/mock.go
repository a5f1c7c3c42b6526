package actuator

import "context"

// Mock records every write it receives and never errors, for Supervisor and
// Decide/Execute integration tests that don't want to touch a filesystem.
type Mock struct {
	CPUGovernor map[int]string
	CPUFreq     map[int]int64
	CPUFreqMin  map[int]int64
	CPUFreqMax  map[int]int64
	GPUFreqMin  int64
	GPUFreqMax  int64
}

// NewMock returns an initialized Mock actuator.
func NewMock() *Mock {
	return &Mock{
		CPUGovernor: map[int]string{},
		CPUFreq:     map[int]int64{},
		CPUFreqMin:  map[int]int64{},
		CPUFreqMax:  map[int]int64{},
	}
}

func (m *Mock) SetCPUGovernor(_ context.Context, cpuIndex int, governor string) error {
	m.CPUGovernor[cpuIndex] = governor
	return nil
}

func (m *Mock) SetCPUFreq(_ context.Context, cpuIndex int, khz int64) error {
	m.CPUFreq[cpuIndex] = khz
	return nil
}

func (m *Mock) SetCPUFreqMin(_ context.Context, cpuIndex int, khz int64) error {
	m.CPUFreqMin[cpuIndex] = khz
	return nil
}

func (m *Mock) SetCPUFreqMax(_ context.Context, cpuIndex int, khz int64) error {
	m.CPUFreqMax[cpuIndex] = khz
	return nil
}

func (m *Mock) SetGPUFreqMin(_ context.Context, hz int64) error {
	m.GPUFreqMin = hz
	return nil
}

func (m *Mock) SetGPUFreqMax(_ context.Context, hz int64) error {
	m.GPUFreqMax = hz
	return nil
}

func (m *Mock) ReadCPUFreq(_ context.Context, cpuIndex int) (int64, error) {
	return m.CPUFreq[cpuIndex], nil
}

func (m *Mock) ReadGPUFreq(_ context.Context) (int64, error) {
	return m.GPUFreqMax, nil
}
