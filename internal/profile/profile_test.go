package profile

import "testing"

func TestAvgPpwRatioEmpty(t *testing.T) {
	if got := AvgPpwRatio(Profile{}); got != 0 {
		t.Fatalf("AvgPpwRatio(empty) = %v, want 0", got)
	}
}

func TestAvgPpwRatio(t *testing.T) {
	p := Profile{PpwRatio: map[int64]float64{
		306000000: 1.0,
		408000000: 2.0,
	}}
	if got := AvgPpwRatio(p); got != 1.5 {
		t.Fatalf("AvgPpwRatio = %v, want 1.5", got)
	}
}

func TestSlowdownFactor(t *testing.T) {
	p := Profile{Slowdown: map[int]float64{2: 0.25, 3: 0.4}}

	if got := p.SlowdownFactor(1); got != 1.0 {
		t.Fatalf("SlowdownFactor(1) = %v, want 1.0", got)
	}
	if got := p.SlowdownFactor(0); got != 1.0 {
		t.Fatalf("SlowdownFactor(0) = %v, want 1.0", got)
	}
	if got := p.SlowdownFactor(2); got != 0.75 {
		t.Fatalf("SlowdownFactor(2) = %v, want 0.75", got)
	}
	if got := p.SlowdownFactor(3); got != 0.6 {
		t.Fatalf("SlowdownFactor(3) = %v, want 0.6", got)
	}
}

func TestSlowdownFactorMissingEntryDefaultsToZero(t *testing.T) {
	p := Profile{Slowdown: map[int]float64{}}
	if got := p.SlowdownFactor(5); got != 1.0 {
		t.Fatalf("SlowdownFactor(5) with no entry = %v, want 1.0 (zero-value map lookup)", got)
	}
}
