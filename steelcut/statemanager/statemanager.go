package statemanager

import (
	"context"
	"errors"
	"fmt"

	"github.com/steelcutops/snapcut/logger"
	pm "github.com/steelcutops/snapcut/steelcut/packagemanager"
)

// Status is where a desired state ended up.
type Status string

const (
	AlreadySatisfied Status = "already-satisfied"
	Converged        Status = "converged"
	Failed           Status = "failed"
)

// StateReport is the outcome of converging one snap toward its desired state.
type StateReport struct {
	Name    string       `json:"name" yaml:"name"`
	Result  bool         `json:"result" yaml:"result"`
	Status  Status       `json:"status" yaml:"status"`
	Changes pm.ChangeSet `json:"changes" yaml:"changes"`
	Comment string       `json:"comment" yaml:"comment"`
}

// Operator is the part of a package manager the reconciler drives.
type Operator interface {
	Version(ctx context.Context, names ...string) (pm.VersionResult, error)
	Install(ctx context.Context, name string, confinement pm.Confinement) (pm.ChangeSet, error)
	Remove(ctx context.Context, name string) (pm.ChangeSet, error)
}

// Reconciler converges snaps to a desired state with the smallest action
// needed. It never returns errors; failures end up in the StateReport.
type Reconciler struct {
	Operator Operator
	Logger   logger.Logger
}

func NewReconciler(op Operator, log logger.Logger) *Reconciler {
	return &Reconciler{Operator: op, Logger: log}
}

func (r *Reconciler) log() logger.Logger {
	if r.Logger == nil {
		return logger.Discard()
	}
	return r.Logger
}

func (r *Reconciler) EnsureInstalled(ctx context.Context, name string, confinement pm.Confinement) StateReport {
	report := newReport(name)

	if err := pm.ValidatePackageName(name); err != nil {
		return r.failed(report, pm.OpInstall, err)
	}

	current, err := r.Operator.Version(ctx, name)
	if err != nil {
		return r.failed(report, pm.OpInstall, err)
	}
	if current.Installed() {
		report.Status = AlreadySatisfied
		report.Comment = fmt.Sprintf("snap %s is already installed", name)
		return report
	}

	changes, err := r.Operator.Install(ctx, name, confinement)
	if err != nil {
		return r.failed(report, pm.OpInstall, err)
	}

	report.Status = Converged
	report.Changes = changes
	report.Comment = fmt.Sprintf("snap %s installed", name)
	r.log().Info("Converged", "name", name, "state", StateInstalled, "changes", len(changes))
	return report
}

func (r *Reconciler) EnsureRemoved(ctx context.Context, name string) StateReport {
	report := newReport(name)

	if err := pm.ValidatePackageName(name); err != nil {
		return r.failed(report, pm.OpRemove, err)
	}

	current, err := r.Operator.Version(ctx, name)
	if err != nil {
		return r.failed(report, pm.OpRemove, err)
	}
	if !current.Installed() {
		report.Status = AlreadySatisfied
		report.Comment = fmt.Sprintf("snap %s is already absent", name)
		return report
	}

	changes, err := r.Operator.Remove(ctx, name)
	if err != nil {
		return r.failed(report, pm.OpRemove, err)
	}

	report.Status = Converged
	report.Changes = changes
	report.Comment = fmt.Sprintf("snap %s removed", name)
	r.log().Info("Converged", "name", name, "state", StateRemoved, "changes", len(changes))
	return report
}

// Apply converges each desired state in order. One failure does not stop the
// ones after it.
func (r *Reconciler) Apply(ctx context.Context, states []DesiredState) []StateReport {
	reports := make([]StateReport, 0, len(states))
	for _, s := range states {
		switch s.State {
		case StateInstalled:
			reports = append(reports, r.EnsureInstalled(ctx, s.Name, s.Confinement))
		case StateRemoved:
			reports = append(reports, r.EnsureRemoved(ctx, s.Name))
		default:
			report := newReport(s.Name)
			report.Result = false
			report.Status = Failed
			report.Comment = fmt.Errorf("%w: %q", ErrInvalidState, s.State).Error()
			r.log().Error("Rejected desired state", "name", s.Name, "state", s.State)
			reports = append(reports, report)
		}
	}
	return reports
}

func newReport(name string) StateReport {
	return StateReport{Name: name, Result: true, Changes: pm.ChangeSet{}}
}

func (r *Reconciler) failed(report StateReport, op pm.Operation, err error) StateReport {
	report.Result = false
	report.Status = Failed

	var opErr *pm.OperationError
	if errors.As(err, &opErr) {
		if opErr.Changes != nil {
			report.Changes = opErr.Changes
		}
		report.Comment = opErr.Error()
	} else {
		report.Comment = fmt.Sprintf("An error was encountered while %s snap %s: %v", op.Gerund(), report.Name, err)
	}

	r.log().Error("Failed to converge", "name", report.Name, "op", op, "error", err, "changes", len(report.Changes))
	return report
}
