// Package snaptest provides an in-memory stand-in for the snap command line
// tool, implementing commandmanager.CommandManager.
package snaptest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	cm "github.com/steelcutops/snapcut/steelcut/commandmanager"
)

const listHeader = "Name      Version    Rev    Tracking       Publisher   Notes"

// FakeSnap keeps a set of installed snaps and answers list, install, remove
// and refresh the way snap does.
type FakeSnap struct {
	Installed map[string][]string
	// Store holds the version a snap installs or refreshes to.
	Store map[string]string
	// Failures maps a snap name to the stderr of a failing mutation.
	Failures map[string]string
	// Partial applies a failing install anyway, like an interrupted hook.
	Partial bool
	// ListOutput, when set, replaces the generated `snap list` output.
	ListOutput string
	// RunErr is returned for mutating commands instead of running them.
	RunErr error

	Calls     []cm.CommandConfig
	ListCalls int
}

func New(installed map[string]string) *FakeSnap {
	f := &FakeSnap{
		Installed: map[string][]string{},
		Store:     map[string]string{},
		Failures:  map[string]string{},
	}
	for name, version := range installed {
		f.Installed[name] = []string{version}
	}
	return f
}

func (f *FakeSnap) RunLocal(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return f.Run(ctx, config)
}

func (f *FakeSnap) RunRemote(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	return f.Run(ctx, config)
}

func (f *FakeSnap) Run(ctx context.Context, config cm.CommandConfig) (cm.CommandResult, error) {
	f.Calls = append(f.Calls, config)

	argv := config.Argv()
	if argv[0] == "systemd-run" && len(argv) > 2 && argv[1] == "--scope" {
		argv = argv[2:]
	}
	if argv[0] != "snap" || len(argv) < 2 {
		return cm.CommandResult{ExitCode: 127, STDERR: fmt.Sprintf("%s: command not found", argv[0])}, nil
	}

	name := argv[len(argv)-1]
	switch argv[1] {
	case "list":
		f.ListCalls++
		if f.ListOutput != "" {
			return cm.CommandResult{STDOUT: f.ListOutput}, nil
		}
		return cm.CommandResult{STDOUT: f.list()}, nil
	case "install":
		if f.RunErr != nil {
			return cm.CommandResult{}, f.RunErr
		}
		if msg, ok := f.Failures[name]; ok {
			if f.Partial {
				f.Installed[name] = []string{f.storeVersion(name)}
			}
			return cm.CommandResult{ExitCode: 1, STDERR: msg}, nil
		}
		f.Installed[name] = []string{f.storeVersion(name)}
		return cm.CommandResult{STDOUT: fmt.Sprintf("%s %s installed\n", name, f.storeVersion(name))}, nil
	case "remove":
		if f.RunErr != nil {
			return cm.CommandResult{}, f.RunErr
		}
		if msg, ok := f.Failures[name]; ok {
			return cm.CommandResult{ExitCode: 1, STDERR: msg}, nil
		}
		if _, ok := f.Installed[name]; !ok {
			return cm.CommandResult{STDERR: fmt.Sprintf("snap %q is not installed\n", name)}, nil
		}
		delete(f.Installed, name)
		return cm.CommandResult{STDOUT: fmt.Sprintf("%s removed\n", name)}, nil
	case "version":
		return cm.CommandResult{STDOUT: "snap    2.61.3\nsnapd   2.61.3\nseries  16\n"}, nil
	case "refresh":
		if contains(argv, "--list") {
			return cm.CommandResult{STDOUT: f.refreshList()}, nil
		}
		if msg, ok := f.Failures[name]; ok {
			return cm.CommandResult{ExitCode: 1, STDERR: msg}, nil
		}
		if v, ok := f.Store[name]; ok {
			if _, installed := f.Installed[name]; installed {
				f.Installed[name] = []string{v}
			}
		}
		return cm.CommandResult{}, nil
	}
	return cm.CommandResult{ExitCode: 64, STDERR: fmt.Sprintf("error: unknown command %q", argv[1])}, nil
}

// Mutations returns the non-listing commands that were run.
func (f *FakeSnap) Mutations() []cm.CommandConfig {
	var out []cm.CommandConfig
	for _, c := range f.Calls {
		argv := c.Argv()
		if len(argv) > 1 && argv[1] == "list" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (f *FakeSnap) storeVersion(name string) string {
	if v, ok := f.Store[name]; ok {
		return v
	}
	return "1.0"
}

func (f *FakeSnap) list() string {
	names := make([]string, 0, len(f.Installed))
	for name := range f.Installed {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{listHeader}
	for _, name := range names {
		for _, version := range f.Installed[name] {
			lines = append(lines, fmt.Sprintf("%-9s %-10s 42     latest/stable  canonical   -", name, version))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (f *FakeSnap) refreshList() string {
	var lines []string
	for name, version := range f.Store {
		if current, ok := f.Installed[name]; ok && strings.Join(current, ",") != version {
			lines = append(lines, fmt.Sprintf("%s  %s  43  10MB  canonical  -", name, version))
		}
	}
	if len(lines) == 0 {
		return "All snaps up to date.\n"
	}
	sort.Strings(lines)
	return "Name  Version  Rev  Size  Publisher  Notes\n" + strings.Join(lines, "\n") + "\n"
}

func contains(argv []string, s string) bool {
	for _, a := range argv {
		if a == s {
			return true
		}
	}
	return false
}
