package sensor

import (
	"context"
	"math/rand"
)

// Mock generates plausible, deterministic rail readings for tests and
// development runs with no real INA3221 hardware attached.
type Mock struct {
	rng *rand.Rand

	// FailRail, when non-empty, makes ReadRail fail for that rail on every
	// call — used to exercise the SensorReadError / skip-this-tick path.
	FailRail Rail
}

// NewMock returns a Mock sensor seeded from seed, so repeated test runs see
// identical readings.
func NewMock(seed int64) *Mock {
	return &Mock{rng: rand.New(rand.NewSource(seed))}
}

func (m *Mock) ReadRail(_ context.Context, rail Rail) (Reading, error) {
	if m.FailRail != "" && rail == m.FailRail {
		return Reading{}, &ErrReadFailed{Rail: rail, Err: context.DeadlineExceeded}
	}
	return Reading{
		CurrentMicroamp: 500000 + m.rng.Int63n(500000),
		VoltageMillivolt: 1000 + m.rng.Int63n(200),
	}, nil
}
