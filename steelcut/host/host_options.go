package host

import (
	"github.com/steelcutops/snapcut/logger"
	"github.com/steelcutops/snapcut/steelcut/commandmanager"
	"github.com/steelcutops/snapcut/steelcut/config"
	"github.com/steelcutops/snapcut/steelcut/servicemanager"
	"github.com/steelcutops/snapcut/steelcut/sshmanager"
)

type HostOption func(*Host)

// WithUser returns a HostOption that sets the user for a Host.
func WithUser(user string) HostOption {
	return func(host *Host) {
		host.User = user
	}
}

// WithPassword returns a HostOption that sets the password for a Host.
func WithPassword(password string) HostOption {
	return func(host *Host) {
		host.Password = password
	}
}

// WithKeyPassphrase returns a HostOption that sets the key passphrase for a Host.
func WithKeyPassphrase(keyPassphrase string) HostOption {
	return func(host *Host) {
		host.KeyPassphrase = keyPassphrase
	}
}

// WithSudoPassword returns a HostOption that sets the sudo password for a Host
// and runs mutating snap commands through sudo.
func WithSudoPassword(password string) HostOption {
	return func(host *Host) {
		host.SudoPassword = password
		host.Sudo = true
	}
}

// WithSudo toggles running mutating snap commands through sudo.
func WithSudo(sudo bool) HostOption {
	return func(host *Host) {
		host.Sudo = sudo
	}
}

func WithSSHClient(client sshmanager.Dialer) HostOption {
	return func(host *Host) {
		host.SSHClient = client
	}
}

func WithConfig(cfg config.Lookup) HostOption {
	return func(host *Host) {
		host.Config = cfg
	}
}

func WithLogger(l logger.Logger) HostOption {
	return func(host *Host) {
		host.Logger = l
	}
}

// WithCommandManager replaces the command manager built for the hostname.
func WithCommandManager(m commandmanager.CommandManager) HostOption {
	return func(host *Host) {
		host.CommandManager = m
	}
}

func WithScopeDetector(d servicemanager.ScopeDetector) HostOption {
	return func(host *Host) {
		host.ScopeDetector = d
	}
}
