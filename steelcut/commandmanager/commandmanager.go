package commandmanager

import (
	"context"
	"time"
)

// CommandConfig describes one command invocation as an argument vector. Args
// are never interpreted by a local shell; on remote hosts they are quoted.
type CommandConfig struct {
	Command string
	Args    []string
	Env     []string
	Sudo    bool
}

// Argv returns the command and its arguments as a single vector.
func (c CommandConfig) Argv() []string {
	return append([]string{c.Command}, c.Args...)
}

// CommandResult encapsulates the results from a command execution.
type CommandResult struct {
	Command   string
	STDOUT    string
	STDERR    string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// Failed reports whether the command exited nonzero and wrote diagnostics.
func (r CommandResult) Failed() bool {
	return r.ExitCode != 0 && r.STDERR != ""
}

// CommandManager runs commands locally or remotely. A nonzero exit status is
// not an error: it is reported through CommandResult.ExitCode. The returned
// error is reserved for commands that could not be run at all.
type CommandManager interface {
	RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error)
	RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error)
	Run(ctx context.Context, config CommandConfig) (CommandResult, error)
}
