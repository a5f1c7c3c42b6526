// Package ladder defines the discrete CPU/GPU frequency ladders shared by
// the Decide planner, the Refine controller, and the frequency actuator.
//
// Both ladders are process-wide constants on the reference hardware: 26 CPU
// steps in kHz, 7 GPU steps in Hz. They are totally ordered; "next above" and
// "next below" either land on a ladder entry or clip to an end.
package ladder

// CPU is the ascending CPU frequency ladder in kHz, as read back from
// /sys/devices/system/cpu/cpu*/cpufreq/scaling_available_frequencies on the
// reference Jetson hardware.
var CPU = []int64{
	115200, 192000, 268800, 345600, 422400, 499200, 576000, 652800,
	729600, 806400, 883200, 960000, 1036800, 1113600, 1190400, 1267200,
	1344000, 1420800, 1497600, 1574400, 1651200, 1728000, 1804800, 1881600,
	1958400, 1984000,
}

// GPU is the ascending GPU frequency ladder in Hz.
var GPU = []int64{
	306000000, 408000000, 510000000, 612000000, 714000000, 816000000, 918000000,
}

// MinCPU and MaxCPU are the ladder endpoints.
var (
	MinCPU = CPU[0]
	MaxCPU = CPU[len(CPU)-1]
	MinGPU = GPU[0]
	MaxGPU = GPU[len(GPU)-1]
)

// BaseCPU is the frequency Decide programs before any Refine step runs.
const BaseCPU int64 = 729600

// AboveStrict returns the smallest ladder entry strictly greater than raw.
// If raw is at or beyond the top of the ladder, ok is false and the caller
// should clip to the requested end.
func AboveStrict(ladderVals []int64, raw float64) (value int64, ok bool) {
	for _, f := range ladderVals {
		if float64(f) > raw {
			return f, true
		}
	}
	return 0, false
}

// ClipTop returns the highest entry on the ladder.
func ClipTop(ladderVals []int64) int64 { return ladderVals[len(ladderVals)-1] }

// ClipBottom returns the lowest entry on the ladder.
func ClipBottom(ladderVals []int64) int64 { return ladderVals[0] }

// MinAtLeast returns the minimum ladder entry f such that meets(f) is true,
// scanning in ascending order (the ladders are always sorted ascending).
// ok is false if no entry satisfies meets, in which case the caller decides
// the fallback (spec.md has Decide fall back to MaxGPU).
func MinAtLeast(ladderVals []int64, meets func(f int64) bool) (value int64, ok bool) {
	for _, f := range ladderVals {
		if meets(f) {
			return f, true
		}
	}
	return 0, false
}
