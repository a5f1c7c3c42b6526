// Package workload defines the Workload Spec that Decide hands to the
// Execution Supervisor: one entry per app naming its target throughput and
// the physical device it was placed on.
package workload

import "fmt"

// Device is a placement target. Unlike profile.Device, Device distinguishes
// the two physical DLA cores, since Decide's capacity bookkeeping and the
// Supervisor's actuator/runtime wiring both need to know which core an app
// landed on.
type Device string

const (
	GPU  Device = "gpu"
	DLA0 Device = "dla0"
	DLA1 Device = "dla1"
)

// IsDLA reports whether d names one of the two DLA cores.
func (d Device) IsDLA() bool {
	return d == DLA0 || d == DLA1
}

// Spec is one app's placement and target, produced by Decide and consumed
// unmodified by the Supervisor for the lifetime of a Run.
type Spec struct {
	App          string
	TargetTp     float64
	Device       Device
	Unachievable bool
}

func (s Spec) String() string {
	tag := ""
	if s.Unachievable {
		tag = " unachievable"
	}
	return fmt.Sprintf("Spec{%s on %s, target=%.2f%s}", s.App, s.Device, s.TargetTp, tag)
}
