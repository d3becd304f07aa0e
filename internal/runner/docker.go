package runner

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shinji-kodama/nuget-cpp/internal/config"
	"github.com/shinji-kodama/nuget-cpp/internal/docker"
	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// DockerRunner runs every invocation in a fresh build container with the
// host working directory bind-mounted. Host paths in the arguments are
// rewritten to their container location.
type DockerRunner struct {
	client  *docker.Client
	image   string
	iso     string
	hostDir string
	workdir string

	Stdout io.Writer
	Stderr io.Writer
}

// NewDockerRunner creates a DockerRunner for hostDir using the container
// settings from cfg. The caller owns client and must Close it.
func NewDockerRunner(client *docker.Client, cfg config.Container, hostDir string) *DockerRunner {
	return &DockerRunner{
		client:  client,
		image:   cfg.Image,
		iso:     cfg.Isolation,
		hostDir: hostDir,
		workdir: cfg.Workdir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run executes inv inside a container and maps a non-zero exit status to
// ExitCommandFailed, exactly like ExecRunner.
func (r *DockerRunner) Run(ctx context.Context, inv Invocation) error {
	spec := docker.ToolSpec{
		Image:     r.image,
		Isolation: r.iso,
		HostDir:   r.hostDir,
		Workdir:   r.workdir,
		Cmd:       append([]string{inv.Tool}, docker.TranslateArgs(inv.Args, r.hostDir, r.workdir)...),
		Step:      inv.describe(),
	}

	code, err := docker.RunTool(ctx, r.client, spec, orDefault(r.Stdout, os.Stdout), orDefault(r.Stderr, os.Stderr))
	if err != nil {
		return err
	}
	if code != 0 {
		return model.NewCLIError(model.ExitCommandFailed,
			fmt.Sprintf("%s failed with exit code %d in container %s", inv.describe(), code, r.image))
	}
	return nil
}
