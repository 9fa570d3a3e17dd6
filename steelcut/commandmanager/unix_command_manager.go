package commandmanager

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/steelcutops/snapcut/common"
	"github.com/steelcutops/snapcut/logger"
	"github.com/steelcutops/snapcut/steelcut/sshmanager"
	"golang.org/x/crypto/ssh"
)

var (
	ErrIncorrectSudoPassword = errors.New("sudo: incorrect password provided")
	ErrNotInSudoers          = errors.New("sudo: user is not in the sudoers file")
	ErrNoSSHClient           = errors.New("commandmanager: SSH client is not initialized")
)

const defaultDialTimeout = 15 * time.Minute

type UnixCommandManager struct {
	Hostname  string
	SSHClient sshmanager.Dialer
	Logger    logger.Logger
	common.Credentials
}

func (u *UnixCommandManager) log() logger.Logger {
	if u.Logger == nil {
		return logger.Discard()
	}
	return u.Logger
}

func (u *UnixCommandManager) RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error) {
	start := time.Now()

	argv := config.Argv()
	if config.Sudo {
		argv = append([]string{"sudo", "-S"}, argv...)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if config.Sudo {
		cmd.Stdin = strings.NewReader(u.SudoPassword + "\n")
	}
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	u.log().Debug("Executing local command", "argv", argv)
	err := cmd.Run()

	result := CommandResult{
		Command:   strings.Join(argv, " "),
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		err = nil
	}
	if err != nil {
		return result, err
	}

	return result, sudoError(result)
}

func (u *UnixCommandManager) RunRemote(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.SSHClient == nil {
		return CommandResult{}, ErrNoSSHClient
	}

	sshConfig, err := sshmanager.ClientConfig(u.Credentials)
	if err != nil {
		return CommandResult{}, err
	}

	dialTimeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(deadline)
	}

	client, err := u.SSHClient.Dial("tcp", u.Hostname+":22", sshConfig, dialTimeout)
	if err != nil {
		return CommandResult{}, err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return CommandResult{}, err
	}
	defer session.Close()

	cmdStr := remoteCommandLine(config)
	if config.Sudo {
		session.Stdin = strings.NewReader(u.SudoPassword + "\n")
	}

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	u.log().Debug("Executing remote command", "hostname", u.Hostname, "command", cmdStr)
	start := time.Now()

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmdStr)
	}()

	select {
	case runErr := <-done:
		result := CommandResult{
			Command:   cmdStr,
			STDOUT:    stdout.String(),
			STDERR:    stderr.String(),
			Duration:  time.Since(start),
			Timestamp: start,
		}

		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			runErr = nil
		}
		if runErr != nil {
			u.log().Error("Failed to execute command over SSH", "command", cmdStr, "error", runErr)
			return result, runErr
		}

		return result, sudoError(result)

	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		u.log().Error("Command over SSH timed out", "command", cmdStr)
		return CommandResult{}, ctx.Err()
	}
}

func (u *UnixCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	if u.isLocal() {
		return u.RunLocal(ctx, config)
	}
	return u.RunRemote(ctx, config)
}

func (u *UnixCommandManager) isLocal() bool {
	return u.Hostname == "" || u.Hostname == "localhost" || u.Hostname == "127.0.0.1"
}

// remoteCommandLine quotes every word so the remote login shell sees the same
// argument vector a local exec would.
func remoteCommandLine(config CommandConfig) string {
	var words []string
	if config.Sudo {
		words = append(words, "sudo", "-S")
	}
	if len(config.Env) > 0 {
		words = append(words, "env")
		words = append(words, config.Env...)
	}
	words = append(words, config.Argv()...)
	return shellescape.QuoteCommand(words)
}

func sudoError(result CommandResult) error {
	out := result.STDOUT + result.STDERR
	switch {
	case strings.Contains(out, "incorrect password"):
		return ErrIncorrectSudoPassword
	case strings.Contains(out, "is not in the sudoers file"):
		return ErrNotInSudoers
	}
	return nil
}
