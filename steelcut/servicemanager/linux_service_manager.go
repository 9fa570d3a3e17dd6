package servicemanager

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/steelcutops/snapcut/logger"
	cm "github.com/steelcutops/snapcut/steelcut/commandmanager"
)

// SystemdProbe asks the host's systemd for its version. The answer is
// memoised for the lifetime of the probe.
type SystemdProbe struct {
	CommandManager cm.CommandManager
	Logger         logger.Logger

	once     sync.Once
	version  int
	probeErr error
}

// Version returns the systemd version, or an error when systemd is not the
// running init or cannot be queried.
func (p *SystemdProbe) Version(ctx context.Context) (int, error) {
	p.once.Do(func() {
		p.version, p.probeErr = p.queryVersion(ctx)
	})
	return p.version, p.probeErr
}

func (p *SystemdProbe) queryVersion(ctx context.Context) (int, error) {
	booted, err := p.Booted(ctx)
	if err != nil {
		return 0, err
	}
	if !booted {
		return 0, ErrNotBooted
	}

	output, err := p.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "systemctl",
		Args:    []string{"--version"},
	})
	if err != nil {
		return 0, err
	}
	if output.ExitCode != 0 {
		return 0, fmt.Errorf("systemctl --version exited %d: %s", output.ExitCode, strings.TrimSpace(output.STDERR))
	}
	return parseSystemdVersion(output.STDOUT)
}

// Booted reports whether systemd is the running init, which is not implied
// by systemctl being installed.
func (p *SystemdProbe) Booted(ctx context.Context) (bool, error) {
	output, err := p.CommandManager.Run(ctx, cm.CommandConfig{
		Command: "test",
		Args:    []string{"-d", SystemdRuntimeDir},
	})
	if err != nil {
		return false, err
	}
	return output.ExitCode == 0, nil
}

func (p *SystemdProbe) HasScope(ctx context.Context) bool {
	version, err := p.Version(ctx)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Debug("systemd not available, running without scope", "error", err)
		}
		return false
	}
	return version >= MinScopeVersion
}

// parseSystemdVersion reads the first line of `systemctl --version`, e.g.
// "systemd 249 (249.11-0ubuntu3)".
func parseSystemdVersion(out string) (int, error) {
	line := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "systemd" {
		return 0, fmt.Errorf("unexpected systemctl output: %q", line)
	}
	version, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("unexpected systemd version %q: %w", fields[1], err)
	}
	return version, nil
}
