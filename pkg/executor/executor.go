package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	liberrors "github.com/arthur-debert/libmerge/pkg/errors"
	"github.com/arthur-debert/libmerge/pkg/logging"
	"github.com/rs/zerolog"
)

// Copier duplicates the given sources into dest, preserving attributes
// and symlinks. A source ending in "/." contributes its contents rather
// than itself.
type Copier interface {
	Copy(ctx context.Context, sources []string, dest string) error
}

// Remover force-removes a path and everything beneath it.
type Remover interface {
	RemoveAll(ctx context.Context, path string) error
}

// Default commands
const (
	DefaultCopyCommand   = "cp"
	DefaultReflink       = "auto"
	DefaultRemoveCommand = "rm"
)

// CommandCopier copies with cp(1) in archive mode, asking for reflinks.
type CommandCopier struct {
	Command string
	// Reflink is passed as --reflink=<mode>; empty omits the flag.
	Reflink string
	logger  zerolog.Logger
}

// NewCommandCopier creates a copier. Empty arguments select the defaults.
func NewCommandCopier(command, reflink string) *CommandCopier {
	if command == "" {
		command = DefaultCopyCommand
	}
	return &CommandCopier{
		Command: command,
		Reflink: reflink,
		logger:  logging.GetLogger("executor.copy"),
	}
}

// Args returns the argument list used for a copy.
func (c *CommandCopier) Args(sources []string, dest string) []string {
	args := []string{"-a"}
	if c.Reflink != "" {
		args = append(args, "--reflink="+c.Reflink)
	}
	args = append(args, "--")
	args = append(args, sources...)
	if !strings.HasSuffix(dest, "/") {
		dest += "/"
	}
	return append(args, dest)
}

// Copy implements Copier.
func (c *CommandCopier) Copy(ctx context.Context, sources []string, dest string) error {
	return run(ctx, c.logger, c.Command, c.Args(sources, dest))
}

// CommandRemover removes with rm(1).
type CommandRemover struct {
	Command string
	logger  zerolog.Logger
}

// NewCommandRemover creates a remover. An empty command selects rm.
func NewCommandRemover(command string) *CommandRemover {
	if command == "" {
		command = DefaultRemoveCommand
	}
	return &CommandRemover{
		Command: command,
		logger:  logging.GetLogger("executor.remove"),
	}
}

// RemoveAll implements Remover.
func (r *CommandRemover) RemoveAll(ctx context.Context, path string) error {
	if path == "" || path == "/" {
		return liberrors.Newf(liberrors.ErrInvalidInput, "refusing to remove %q", path)
	}
	return run(ctx, r.logger, r.Command, []string{"-rf", "--", path})
}

// run executes a command to completion, capturing its output.
func run(ctx context.Context, logger zerolog.Logger, name string, args []string) error {
	commandLine := name + " " + strings.Join(args, " ")

	logging.LogCommand(logger, name, args)

	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stdout.Len() > 0 {
		logger.Debug().
			Str("output", stdout.String()).
			Msg("Command stdout")
	}
	if stderr.Len() > 0 {
		logger.Debug().
			Str("output", stderr.String()).
			Msg("Command stderr")
	}

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		logger.Error().
			Err(err).
			Str("command", commandLine).
			Int("exit_code", exitCode).
			Str("stderr", stderr.String()).
			Msg("Command execution failed")

		return liberrors.Wrapf(err, liberrors.ErrExecFailed, "non-successful return from %s: %d", name, exitCode).
			WithDetail("command", commandLine).
			WithDetail("exit_code", exitCode).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}

	logger.Debug().
		Str("command", name).
		Msg("Command executed successfully")
	return nil
}
