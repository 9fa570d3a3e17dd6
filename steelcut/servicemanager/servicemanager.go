package servicemanager

import (
	"context"
	"errors"
)

// ScopeDetector reports whether the host can run a command inside a
// transient systemd scope unit.
type ScopeDetector interface {
	HasScope(ctx context.Context) bool
}

// MinScopeVersion is the first systemd release with `systemd-run --scope`.
const MinScopeVersion = 205

// SystemdRuntimeDir exists only while systemd is running as init.
const SystemdRuntimeDir = "/run/systemd/system"

var ErrNotBooted = errors.New("servicemanager: system was not booted with systemd")
