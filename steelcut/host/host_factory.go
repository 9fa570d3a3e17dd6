package host

import (
	"fmt"
	"strings"

	"github.com/steelcutops/snapcut/logger"
	"github.com/steelcutops/snapcut/steelcut/commandmanager"
	"github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/servicemanager"
	"github.com/steelcutops/snapcut/steelcut/statemanager"
)

func NewHost(hostname string, options ...HostOption) (*Host, error) {
	if hostname == "" || strings.HasPrefix(hostname, "-") || strings.ContainsAny(hostname, " \t\n/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHostname, hostname)
	}

	h := &Host{Hostname: hostname}
	for _, option := range options {
		option(h)
	}

	if h.Logger == nil {
		h.Logger = logger.Discard()
	}
	log := h.Logger.With("host", hostname)

	if h.CommandManager == nil {
		h.CommandManager = &commandmanager.UnixCommandManager{
			Hostname:    hostname,
			SSHClient:   h.SSHClient,
			Logger:      log,
			Credentials: h.Credentials,
		}
	}
	if h.ScopeDetector == nil {
		h.ScopeDetector = &servicemanager.SystemdProbe{CommandManager: h.CommandManager, Logger: log}
	}

	h.PackageManager = &packagemanager.SnapPackageManager{
		CommandManager: h.CommandManager,
		Cache:          packagemanager.NewCache(),
		Scope:          h.ScopeDetector,
		Config:         h.Config,
		Logger:         log,
		Sudo:           h.Sudo,
	}
	h.StateManager = statemanager.NewReconciler(h.PackageManager, log)

	return h, nil
}
