package packagemanager

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPackageName = errors.New("packagemanager: invalid snap package name")
	ErrInvalidConfinement = errors.New("packagemanager: invalid confinement mode, options are jailmode, classic and devmode")
	ErrInvalidPattern     = errors.New("packagemanager: invalid package name pattern")
	ErrListFailed         = errors.New("packagemanager: snap list failed")
)

// ValidationError rejects input before any command is run.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidatePackageName refuses empty names and names that would be read as a
// flag by the snap command.
func ValidatePackageName(name string) error {
	if name == "" || strings.HasPrefix(name, "-") {
		return &ValidationError{Field: "name", Value: name, Err: ErrInvalidPackageName}
	}
	return nil
}

type Operation string

const (
	OpInstall Operation = "install"
	OpRemove  Operation = "remove"
	OpRefresh Operation = "refresh"
)

// Gerund renders the operation for messages, e.g. "installing".
func (o Operation) Gerund() string {
	switch o {
	case OpInstall:
		return "installing"
	case OpRemove:
		return "removing"
	case OpRefresh:
		return "refreshing"
	}
	return string(o)
}

// OperationError reports a mutating snap command that failed. Changes holds
// what actually changed on the host, which may be non-empty.
type OperationError struct {
	Op      Operation
	Name    string
	Errors  []string
	Changes ChangeSet
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("problem encountered %s snap %s: %s", e.Op.Gerund(), e.Name, strings.Join(e.Errors, "; "))
}
