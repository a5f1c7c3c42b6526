package profile

import "fmt"

// ErrProfileNotFound is returned when one of the four files backing an app's
// profile (engine-info JSON with the shape record, perf CSV, DLA subgraph
// build log, or the shared slowdowns JSON) is missing. Fatal at Decide: the
// run aborts before any worker spawns.
type ErrProfileNotFound struct {
	App  string
	Path string
}

func (e *ErrProfileNotFound) Error() string {
	return fmt.Sprintf("profile not found for app %q: %s", e.App, e.Path)
}

// ErrProfileMalformed is returned when a profile file exists but cannot be
// parsed, or when it references a frequency absent from the GPU ladder.
type ErrProfileMalformed struct {
	App    string
	Reason string
}

func (e *ErrProfileMalformed) Error() string {
	return fmt.Sprintf("profile malformed for app %q: %s", e.App, e.Reason)
}

// ErrSlowdownMissing is returned when the shared slowdown table has no entry
// for this app.
type ErrSlowdownMissing struct {
	App string
}

func (e *ErrSlowdownMissing) Error() string {
	return fmt.Sprintf("slowdown table missing entry for app %q", e.App)
}
