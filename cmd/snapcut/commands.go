package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"

	"github.com/steelcutops/snapcut/steelcut/host"
	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
	"github.com/steelcutops/snapcut/steelcut/statemanager"
)

// mutation is the per-host outcome of install, remove and refresh.
type mutation struct {
	Changes pm.ChangeSet `json:"changes"`
	Error   string       `json:"error,omitempty"`
}

// perHost runs fn on every host of the group and renders what came back,
// including partial results from hosts that failed.
func (a *app) perHost(ctx context.Context, fn func(ctx context.Context, h *host.Host) (interface{}, error)) error {
	var mu sync.Mutex
	results := make(map[string]interface{})

	err := a.group.Each(ctx, a.concurrency(), func(ctx context.Context, h *host.Host) error {
		if a.flags.Preflight {
			if err := h.Preflight(ctx); err != nil {
				return err
			}
		}

		res, err := fn(ctx, h)
		if res != nil {
			mu.Lock()
			results[h.Hostname] = res
			mu.Unlock()
		}
		return err
	})

	if renderErr := render(a.out, a.flags.Output, results); renderErr != nil {
		return renderErr
	}
	if err != nil {
		a.log.Error("Host processing failed", "error", err)
	}
	return err
}

func newListCmd(a *app) *cobra.Command {
	var asList bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed snaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.perHost(cmd.Context(), func(ctx context.Context, h *host.Host) (interface{}, error) {
				inv, err := h.PackageManager.ListInstalled(ctx, pm.ListOptions{VersionsAsList: asList})
				if err != nil {
					return nil, err
				}
				return inv, nil
			})
		},
	}
	cmd.Flags().BoolVar(&asList, "versions-as-list", false, "Report every installed version separately")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	var asList bool
	cmd := &cobra.Command{
		Use:   "version NAME...",
		Short: "Show installed versions; NAME may contain * globs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.perHost(cmd.Context(), func(ctx context.Context, h *host.Host) (interface{}, error) {
				res, err := h.PackageManager.VersionWithOptions(ctx, pm.VersionOptions{VersionsAsList: asList}, args...)
				if err != nil {
					return nil, err
				}
				return versionOutput(res, asList), nil
			})
		},
	}
	cmd.Flags().BoolVar(&asList, "versions-as-list", false, "Report every installed version separately")
	return cmd
}

func newInstallCmd(a *app) *cobra.Command {
	var confinement string
	cmd := &cobra.Command{
		Use:   "install NAME",
		Short: "Install a snap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.confinementFlag(confinement)
			if err != nil {
				return err
			}
			return a.perHost(cmd.Context(), func(ctx context.Context, h *host.Host) (interface{}, error) {
				return mutationResult(h.PackageManager.Install(ctx, args[0], mode))
			})
		},
	}
	cmd.Flags().StringVar(&confinement, "confinement", "", "jailmode, classic or devmode (default from config, else jailmode)")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a snap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.perHost(cmd.Context(), func(ctx context.Context, h *host.Host) (interface{}, error) {
				return mutationResult(h.PackageManager.Remove(ctx, args[0]))
			})
		},
	}
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh NAME",
		Short: "Refresh a snap to the latest revision of its channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.perHost(cmd.Context(), func(ctx context.Context, h *host.Host) (interface{}, error) {
				return mutationResult(h.PackageManager.Refresh(ctx, args[0]))
			})
		},
	}
}

func newUpdatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "updates",
		Short: "List snaps with a pending refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.perHost(cmd.Context(), func(ctx context.Context, h *host.Host) (interface{}, error) {
				updates, err := h.PackageManager.ListUpdates(ctx)
				if err != nil {
					return nil, err
				}
				return updates, nil
			})
		},
	}
}

func newEnsureCmd(a *app) *cobra.Command {
	var confinement string
	ensureCmd := &cobra.Command{
		Use:   "ensure",
		Short: "Converge a snap to a desired state",
	}

	installedCmd := &cobra.Command{
		Use:   "installed NAME",
		Short: "Install the snap unless it is already installed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.confinementFlag(confinement)
			if err != nil {
				return err
			}
			return a.apply(cmd.Context(), []statemanager.DesiredState{
				{Name: args[0], State: statemanager.StateInstalled, Confinement: mode},
			})
		},
	}
	installedCmd.Flags().StringVar(&confinement, "confinement", "", "jailmode, classic or devmode (default from config, else jailmode)")

	removedCmd := &cobra.Command{
		Use:   "removed NAME",
		Short: "Remove the snap unless it is already absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd.Context(), []statemanager.DesiredState{
				{Name: args[0], State: statemanager.StateRemoved},
			})
		},
	}

	ensureCmd.AddCommand(installedCmd, removedCmd)
	return ensureCmd
}

func newApplyCmd(a *app) *cobra.Command {
	var stateFile string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge hosts to the states listed in a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := a.defaultConfinement()
			if err != nil {
				return err
			}
			states, err := statemanager.LoadStateFile(stateFile, mode)
			if err != nil {
				return err
			}
			return a.apply(cmd.Context(), states)
		},
	}
	cmd.Flags().StringVarP(&stateFile, "file", "f", "snaps.yaml", "State file")
	return cmd
}

func (a *app) apply(ctx context.Context, states []statemanager.DesiredState) error {
	if a.flags.Preflight {
		err := a.group.Each(ctx, a.concurrency(), func(ctx context.Context, h *host.Host) error {
			return h.Preflight(ctx)
		})
		if err != nil {
			return err
		}
	}

	reports, err := a.group.Apply(ctx, states, a.concurrency())

	results := make(map[string]interface{}, len(reports))
	for hostname, hostReports := range reports {
		results[hostname] = hostReports
	}
	if renderErr := render(a.out, a.flags.Output, results); renderErr != nil {
		return renderErr
	}
	if err != nil {
		a.log.Error("State application failed", "error", err)
	}
	return err
}

func (a *app) confinementFlag(value string) (pm.Confinement, error) {
	if value == "" {
		return a.defaultConfinement()
	}
	return pm.ParseConfinement(value)
}

func mutationResult(changes pm.ChangeSet, err error) (interface{}, error) {
	if err != nil {
		return mutation{Changes: changes, Error: err.Error()}, err
	}
	return mutation{Changes: changes}, nil
}
