package actuator

import "fmt"

// ErrPermissionDenied wraps an EACCES/EPERM writing a sysfs control file.
// Logged and non-fatal: the system continues running at whatever frequency
// the OS governor already picked, making the run's results approximate
// rather than invalid (spec.md §7).
type ErrPermissionDenied struct {
	Path string
	Err  error
}

func (e *ErrPermissionDenied) Error() string {
	return fmt.Sprintf("permission denied writing %s: %v", e.Path, e.Err)
}

func (e *ErrPermissionDenied) Unwrap() error { return e.Err }

// ErrPathMissing wraps an ENOENT on a sysfs control file, typically because
// the core is running on hardware (or a dev machine) that doesn't expose
// this control surface.
type ErrPathMissing struct {
	Path string
	Err  error
}

func (e *ErrPathMissing) Error() string {
	return fmt.Sprintf("frequency control path not found: %s: %v", e.Path, e.Err)
}

func (e *ErrPathMissing) Unwrap() error { return e.Err }
