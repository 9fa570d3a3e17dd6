package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steelcutops/snapcut/logger"
	"github.com/steelcutops/snapcut/steelcut/config"
	"github.com/steelcutops/snapcut/steelcut/host"
	"github.com/steelcutops/snapcut/steelcut/hostgroup"
	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/sshmanager"
)

type flags struct {
	ConfigPath         string
	Concurrency        int
	Debug              bool
	Hostnames          []string
	IniFilePath        string
	KeyPassPrompt      bool
	Output             string
	PasswordPrompt     bool
	Preflight          bool
	Sudo               bool
	SudoPasswordPrompt bool
	Username           string
}

type app struct {
	flags flags
	out   io.Writer
	log   logger.Logger
	cfg   *config.Config
	group *hostgroup.HostGroup

	// hostOptions are appended to every host, after the ones built from flags.
	hostOptions []host.HostOption
}

func main() {
	a := &app{out: os.Stdout}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "snapcut",
		Short:        "Idempotent snap package management across hosts",
		Long:         "snapcut lists, installs and removes snaps on local and SSH hosts, and converges them to a declared state.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.flags.ConfigPath, "config", "c", "", "Path to snapcut INI configuration")
	pf.IntVar(&a.flags.Concurrency, "concurrency", 0, "Maximum number of hosts handled at once (default from config, else 10)")
	pf.BoolVar(&a.flags.Debug, "debug", false, "Enable debug log level")
	pf.StringArrayVar(&a.flags.Hostnames, "hostname", nil, "Hostname to manage (repeatable, default localhost)")
	pf.StringVar(&a.flags.IniFilePath, "ini", "", "Path to INI file with host groups")
	pf.BoolVar(&a.flags.KeyPassPrompt, "keypass", false, "Prompt for the SSH key passphrase")
	pf.StringVarP(&a.flags.Output, "output", "o", "text", "Output format: text or json")
	pf.BoolVar(&a.flags.PasswordPrompt, "password", false, "Prompt for an SSH password")
	pf.BoolVar(&a.flags.Preflight, "preflight", false, "Check every host runs Linux with snap before acting")
	pf.BoolVar(&a.flags.Sudo, "sudo", false, "Run mutating snap commands through sudo")
	pf.BoolVar(&a.flags.SudoPasswordPrompt, "sudo-password", false, "Prompt for the sudo password")
	pf.StringVarP(&a.flags.Username, "username", "u", "", "Username for SSH connections")

	rootCmd.AddCommand(
		newListCmd(a),
		newVersionCmd(a),
		newInstallCmd(a),
		newRemoveCmd(a),
		newRefreshCmd(a),
		newUpdatesCmd(a),
		newEnsureCmd(a),
		newApplyCmd(a),
	)
	return rootCmd
}

func (a *app) setup() error {
	if a.flags.Output != "text" && a.flags.Output != "json" {
		return fmt.Errorf("unknown output format %q", a.flags.Output)
	}

	cfg, err := config.Load(a.flags.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = a.newLogger().With("run", uuid.NewString())

	options, err := a.buildHostOptions()
	if err != nil {
		return err
	}

	a.group, err = a.initializeHosts(options)
	return err
}

func (a *app) newLogger() logger.Logger {
	level, err := logrus.ParseLevel(a.cfg.String(config.KeyLogLevel, "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	if a.flags.Debug {
		level = logrus.DebugLevel
	}
	return logger.New(level)
}

func (a *app) concurrency() int {
	if a.flags.Concurrency > 0 {
		return a.flags.Concurrency
	}
	return a.cfg.Int(config.KeyHostsConcurrency, 10)
}

// defaultConfinement is the confinement used when a command or state entry
// does not name one.
func (a *app) defaultConfinement() (pm.Confinement, error) {
	return pm.ParseConfinement(a.cfg.String(config.KeySnapConfinement, string(pm.DefaultConfinement)))
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return string(secret), nil
}

func (a *app) buildHostOptions() ([]host.HostOption, error) {
	options := []host.HostOption{
		host.WithConfig(a.cfg),
		host.WithLogger(a.log),
		host.WithSSHClient(sshmanager.RealDialer{}),
		host.WithSudo(a.flags.Sudo),
	}

	if a.flags.Username != "" {
		options = append(options, host.WithUser(a.flags.Username))
	}
	if a.flags.PasswordPrompt {
		password, err := readSecret("Enter the password: ")
		if err != nil {
			return nil, err
		}
		options = append(options, host.WithPassword(password))
	}
	if a.flags.KeyPassPrompt {
		keyPass, err := readSecret("Enter the key passphrase: ")
		if err != nil {
			return nil, err
		}
		options = append(options, host.WithKeyPassphrase(keyPass))
	}
	if a.flags.SudoPasswordPrompt {
		sudoPassword, err := readSecret("Enter the sudo password: ")
		if err != nil {
			return nil, err
		}
		options = append(options, host.WithSudoPassword(sudoPassword))
	}

	return append(options, a.hostOptions...), nil
}

func (a *app) initializeHosts(options []host.HostOption) (*hostgroup.HostGroup, error) {
	hostGroup := hostgroup.NewHostGroup()
	hostnames := append([]string(nil), a.flags.Hostnames...)

	if a.flags.IniFilePath != "" {
		hostsMap, err := config.LoadHosts(a.flags.IniFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read INI file: %w", err)
		}
		for group, hosts := range hostsMap {
			a.log.Debug("Adding hosts from group", "group", group, "count", len(hosts))
			hostnames = append(hostnames, hosts...)
		}
	}
	if len(hostnames) == 0 {
		hostnames = append(hostnames, "localhost")
	}

	for _, hostname := range hostnames {
		server, err := host.NewHost(hostname, options...)
		if err != nil {
			return nil, err
		}
		hostGroup.AddHost(server)
	}

	return hostGroup, nil
}
