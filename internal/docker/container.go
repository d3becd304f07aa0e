// container.go implements the build-container lifecycle: create a
// throwaway container for one tool invocation, stream its output, wait for
// the exit status and remove it.
//
// Every container carries the nuget-cpp.managed-by label so that
// RemoveStaleContainers can clean up after a run that was killed before
// its deferred removal ran.
package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// ToolSpec describes one tool invocation inside a build container.
type ToolSpec struct {
	// Image is the build image (must already be present or pullable by
	// the daemon on create).
	Image string

	// Isolation is the Windows isolation mode ("process", "hyperv");
	// empty means the daemon default.
	Isolation string

	// HostDir is the host directory bind-mounted into the container.
	HostDir string

	// Workdir is the mount point of HostDir and the container's working
	// directory.
	Workdir string

	// Cmd is the tool followed by its (already translated) arguments.
	Cmd []string

	// Step labels the container for diagnostics.
	Step string
}

// buildContainerConfig converts a ToolSpec into the create-request structs.
// Pure function; kept separate from RunTool so it can be unit tested.
func buildContainerConfig(spec ToolSpec, now time.Time) (*container.Config, *container.HostConfig) {
	cfg := &container.Config{
		Image:        spec.Image,
		Cmd:          spec.Cmd,
		WorkingDir:   spec.Workdir,
		Labels:       BuildLabels(spec.Step, spec.HostDir, now),
		AttachStdout: true,
		AttachStderr: true,
		Tty:          false,
	}

	hostCfg := &container.HostConfig{
		Binds: []string{spec.HostDir + ":" + spec.Workdir},
	}
	if spec.Isolation != "" {
		hostCfg.Isolation = container.Isolation(spec.Isolation)
	}
	return cfg, hostCfg
}

// RunTool runs spec to completion and returns the container's exit status.
// Output is demultiplexed onto stdout and stderr as it arrives.
//
// Errors talking to the daemon are CLIErrors with ExitDockerNotRunning; a
// non-zero exit status is NOT an error here, the caller decides what it
// means.
func RunTool(ctx context.Context, c *Client, spec ToolSpec, stdout, stderr io.Writer) (int64, error) {
	cfg, hostCfg := buildContainerConfig(spec, time.Now())

	created, err := c.inner.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return -1, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create container from image %q", spec.Image), err)
	}
	// Removal must happen even if ctx was cancelled, hence Background.
	defer func() { _ = RemoveContainer(context.Background(), c, created.ID, true) }()

	// Register the wait before starting so a fast-exiting tool cannot be
	// missed.
	waitCh, waitErrCh := c.inner.ContainerWait(ctx, created.ID, container.WaitConditionNextExit)

	if err := c.inner.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return -1, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to start container for %s", spec.Step), err)
	}

	logs, err := c.inner.ContainerLogs(ctx, created.ID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err == nil {
		// Non-TTY containers multiplex both streams; StdCopy splits them.
		_, _ = stdcopy.StdCopy(stdout, stderr, logs)
		_ = logs.Close()
	}

	select {
	case res := <-waitCh:
		if res.Error != nil && res.Error.Message != "" {
			return -1, model.NewCLIError(model.ExitDockerNotRunning,
				fmt.Sprintf("waiting for container %s: %s", spec.Step, res.Error.Message))
		}
		return res.StatusCode, nil
	case err := <-waitErrCh:
		return -1, model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("waiting for container %s", spec.Step), err)
	case <-ctx.Done():
		return -1, ctx.Err()
	}
}

// RemoveContainer removes a container, killing it first when force is set.
func RemoveContainer(ctx context.Context, c *Client, containerID string, force bool) error {
	err := c.inner.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: force})
	if err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove container %q", containerID), err)
	}
	return nil
}

// RemoveStaleContainers removes every container carrying the managed-by
// label and returns how many were removed. Build containers are never meant
// to outlive a run, so anything found here is left over from a crash.
func RemoveStaleContainers(ctx context.Context, c *Client) (int, error) {
	list, err := c.inner.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue)),
	})
	if err != nil {
		return 0, model.WrapCLIError(model.ExitDockerNotRunning,
			"failed to list Docker containers", err)
	}

	removed := 0
	for _, ctr := range list {
		// The daemon already filtered, but a fake or older daemon may not.
		if !IsManaged(ctr.Labels) {
			continue
		}
		if err := RemoveContainer(ctx, c, ctr.ID, true); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
