package host

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steelcutops/snapcut/common"
	"github.com/steelcutops/snapcut/logger"
	"github.com/steelcutops/snapcut/steelcut/commandmanager"
	"github.com/steelcutops/snapcut/steelcut/config"
	"github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/servicemanager"
	"github.com/steelcutops/snapcut/steelcut/sshmanager"
	"github.com/steelcutops/snapcut/steelcut/statemanager"
)

var (
	ErrInvalidHostname = errors.New("host: invalid hostname")
	ErrUnsupportedOS   = errors.New("host: snap is only supported on Linux")
	ErrSnapNotFound    = errors.New("host: snap not found")
)

// Host is one managed machine. Its snap inventory cache belongs to it alone,
// so operations on one host must not run concurrently.
type Host struct {
	Hostname string
	common.Credentials
	Sudo      bool
	SSHClient sshmanager.Dialer
	Config    config.Lookup
	Logger    logger.Logger

	CommandManager commandmanager.CommandManager
	ScopeDetector  servicemanager.ScopeDetector
	PackageManager *packagemanager.SnapPackageManager
	StateManager   *statemanager.Reconciler
}

// Preflight checks that the host runs Linux and has a working snap command.
func (h *Host) Preflight(ctx context.Context) error {
	osName, err := h.DetermineOS(ctx)
	if err != nil {
		return err
	}
	if osName != "Linux" {
		return fmt.Errorf("%w: %s reports %q", ErrUnsupportedOS, h.Hostname, osName)
	}

	result, err := h.CommandManager.Run(ctx, commandmanager.CommandConfig{
		Command: "snap",
		Args:    []string{"version"},
	})
	if err != nil || result.ExitCode != 0 {
		return fmt.Errorf("%w on %s", ErrSnapNotFound, h.Hostname)
	}
	return nil
}

func (h *Host) DetermineOS(ctx context.Context) (string, error) {
	result, err := h.CommandManager.Run(ctx, commandmanager.CommandConfig{
		Command: "uname",
		Args:    []string{"-s"},
	})
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("uname exited %d: %s", result.ExitCode, strings.TrimSpace(result.STDERR))
	}
	return strings.TrimSpace(result.STDOUT), nil
}
