package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// ExecRunner runs tools as host child processes.
//
// The child inherits the environment and working directory of this process.
// Its output is streamed straight through rather than captured, because
// msbuild output is long and users expect to watch it live.
type ExecRunner struct {
	// Stdout and Stderr receive the tool's output streams. Nil means
	// os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates an ExecRunner attached to the process stdio.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes the invocation and waits for it to exit.
//
// A tool that cannot be found yields ExitToolNotFound; a non-zero
// exit status yields ExitCommandFailed with the status in the message.
// Cancelling ctx kills the child process.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) error {
	// #nosec G204 -- the tool comes from the project configuration and the
	// args are built internally; no shell is involved.
	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...)
	cmd.Stdout = orDefault(r.Stdout, os.Stdout)
	cmd.Stderr = orDefault(r.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return model.WrapCLIError(model.ExitToolNotFound,
			fmt.Sprintf("%s: %q not found", inv.describe(), inv.Tool), err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return model.WrapCLIError(model.ExitCommandFailed,
				fmt.Sprintf("%s interrupted", inv.describe()), ctx.Err())
		}
		return model.WrapCLIError(model.ExitCommandFailed,
			fmt.Sprintf("%s failed with exit code %d", inv.describe(), exitErr.ExitCode()), err)
	}

	return model.WrapCLIError(model.ExitCommandFailed,
		fmt.Sprintf("%s could not be started", inv.describe()), err)
}

func orDefault(w io.Writer, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
