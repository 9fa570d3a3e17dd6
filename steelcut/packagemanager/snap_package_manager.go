package packagemanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/steelcutops/snapcut/logger"
	cm "github.com/steelcutops/snapcut/steelcut/commandmanager"
	"github.com/steelcutops/snapcut/steelcut/config"
	"github.com/steelcutops/snapcut/steelcut/servicemanager"
)

const (
	snapBinary   = "snap"
	snapCacheKey = "snap"
)

var outputFlags = []string{"--color=never", "--unicode=never"}

// SnapPackageManager drives the snap command line tool. It keeps the last
// listing in Cache and diffs listings around every mutation.
type SnapPackageManager struct {
	CommandManager cm.CommandManager
	Cache          *Cache
	// Scope and Config decide whether mutations run under systemd-run --scope.
	Scope  servicemanager.ScopeDetector
	Config config.Lookup
	Logger logger.Logger
	Sudo   bool
}

func NewSnapPackageManager(cmdManager cm.CommandManager, cache *Cache) *SnapPackageManager {
	return &SnapPackageManager{CommandManager: cmdManager, Cache: cache}
}

func (spm *SnapPackageManager) log() logger.Logger {
	if spm.Logger == nil {
		return logger.Discard()
	}
	return spm.Logger
}

func (spm *SnapPackageManager) cache() *Cache {
	if spm.Cache == nil {
		spm.Cache = NewCache()
	}
	return spm.Cache
}

// ListInstalled returns the installed snaps. A cached listing is served as a
// copy; otherwise `snap list` is run and its result cached.
func (spm *SnapPackageManager) ListInstalled(ctx context.Context, opts ListOptions) (Inventory, error) {
	if opts.Removed || opts.PurgeDesired {
		return Inventory{}, nil
	}

	if cached, ok := spm.cache().Get(snapCacheKey); ok {
		return opts.shape(cached), nil
	}

	output, err := spm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: snapBinary,
		Args:    append([]string{"list"}, outputFlags...),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrListFailed, err)
	}
	if output.ExitCode != 0 {
		return nil, fmt.Errorf("%w: exit status %d: %s", ErrListFailed, output.ExitCode, strings.TrimSpace(output.STDERR))
	}

	inv := Inventory{}
	rows := parseTable(output.STDOUT, func(line string) {
		spm.log().Error("Problem parsing snap list: unexpected formatting in line", "line", line)
	})
	for _, r := range rows {
		inv.add(r.name, r.version)
	}
	inv.sortVersions()

	spm.cache().Set(snapCacheKey, inv)
	return opts.shape(inv), nil
}

// Invalidate drops the cached listing so the next read goes to snap.
func (spm *SnapPackageManager) Invalidate() {
	spm.cache().Invalidate(snapCacheKey)
}

type VersionOptions struct {
	VersionsAsList bool
}

// Version looks up installed versions. A name containing "*" is matched as a
// glob against installed snaps. Unknown concrete names map to an empty value.
func (spm *SnapPackageManager) Version(ctx context.Context, names ...string) (VersionResult, error) {
	return spm.VersionWithOptions(ctx, VersionOptions{}, names...)
}

func (spm *SnapPackageManager) VersionWithOptions(ctx context.Context, opts VersionOptions, names ...string) (VersionResult, error) {
	ret := Inventory{}
	hasGlob := false

	if len(names) != 0 {
		pkgs, err := spm.ListInstalled(ctx, ListOptions{VersionsAsList: true})
		if err != nil {
			return VersionResult{}, err
		}

		for _, name := range names {
			if !strings.Contains(name, "*") {
				ret[name] = pkgs[name]
				continue
			}

			hasGlob = true
			g, err := glob.Compile(name)
			if err != nil {
				return VersionResult{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, name, err)
			}
			for pkg, versions := range pkgs {
				if g.Match(pkg) {
					ret[pkg] = versions
				}
			}
		}
	}

	if !opts.VersionsAsList {
		ret = ret.Stringify()
	}

	if len(ret) == 1 && !hasGlob {
		for _, v := range ret {
			return singleVersion(v), nil
		}
	}
	return manyVersions(ret), nil
}

// Install installs a snap with the given confinement and returns what
// changed. On failure the error is an *OperationError carrying the same
// ChangeSet.
func (spm *SnapPackageManager) Install(ctx context.Context, name string, confinement Confinement) (ChangeSet, error) {
	if err := ValidatePackageName(name); err != nil {
		return nil, err
	}
	if err := confinement.Validate(); err != nil {
		return nil, err
	}

	args := append([]string{"install"}, outputFlags...)
	args = append(args, confinement.Flag(), name)
	return spm.mutate(ctx, OpInstall, name, args)
}

func (spm *SnapPackageManager) Remove(ctx context.Context, name string) (ChangeSet, error) {
	if err := ValidatePackageName(name); err != nil {
		return nil, err
	}
	return spm.mutate(ctx, OpRemove, name, []string{"remove", name})
}

func (spm *SnapPackageManager) Refresh(ctx context.Context, name string) (ChangeSet, error) {
	if err := ValidatePackageName(name); err != nil {
		return nil, err
	}
	return spm.mutate(ctx, OpRefresh, name, []string{"refresh", name})
}

// ListUpdates returns the snaps with a pending refresh and the version they
// would move to.
func (spm *SnapPackageManager) ListUpdates(ctx context.Context) (Inventory, error) {
	output, err := spm.CommandManager.Run(ctx, cm.CommandConfig{
		Command: snapBinary,
		Args:    append([]string{"refresh", "--list"}, outputFlags...),
	})
	if err != nil {
		return nil, err
	}
	if output.ExitCode != 0 {
		return nil, fmt.Errorf("snap refresh --list exited %d: %s", output.ExitCode, strings.TrimSpace(output.STDERR))
	}

	updates := Inventory{}
	for _, r := range parseTable(output.STDOUT, nil) {
		updates.add(r.name, r.version)
	}
	updates.sortVersions()
	return updates.Stringify(), nil
}

// mutate runs one state-changing snap command between two listings. The
// exit status only decides whether an error is reported; the ChangeSet always
// comes from comparing the listings.
func (spm *SnapPackageManager) mutate(ctx context.Context, op Operation, name string, args []string) (ChangeSet, error) {
	before, err := spm.ListInstalled(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}

	command := spm.mutatingCommand(ctx, args)
	spm.log().Debug("Running snap command", "op", op, "name", name, "command", command.Argv())

	var errs []string
	result, err := spm.CommandManager.Run(ctx, command)
	switch {
	case err != nil:
		errs = append(errs, err.Error())
	case result.Failed():
		errs = append(errs, strings.TrimSpace(result.STDERR))
	}

	spm.Invalidate()
	after, err := spm.ListInstalled(ctx, ListOptions{})
	if err != nil {
		if len(errs) > 0 {
			return nil, fmt.Errorf("%s snap %s failed (%s) and could not be verified: %w", op, name, strings.Join(errs, "; "), err)
		}
		return nil, err
	}

	changes := CompareInventories(before, after)
	if len(errs) > 0 {
		spm.log().Warn("Snap command failed", "op", op, "name", name, "errors", errs, "changes", len(changes))
		return changes, &OperationError{Op: op, Name: name, Errors: errs, Changes: changes}
	}

	spm.log().Info("Snap command finished", "op", op, "name", name, "changes", len(changes))
	return changes, nil
}

func (spm *SnapPackageManager) mutatingCommand(ctx context.Context, args []string) cm.CommandConfig {
	if spm.useScope(ctx) {
		return cm.CommandConfig{
			Command: "systemd-run",
			Args:    append([]string{"--scope", snapBinary}, args...),
			Sudo:    spm.Sudo,
		}
	}
	return cm.CommandConfig{Command: snapBinary, Args: args, Sudo: spm.Sudo}
}

func (spm *SnapPackageManager) useScope(ctx context.Context) bool {
	if spm.Scope == nil {
		return false
	}
	if spm.Config != nil && !spm.Config.Bool(config.KeySystemdScope, true) {
		return false
	}
	return spm.Scope.HasScope(ctx)
}
