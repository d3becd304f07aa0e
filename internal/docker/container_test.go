package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// fakeAPI implements the handful of client.APIClient methods RunTool and
// RemoveStaleContainers use. Embedding the interface satisfies the rest;
// calling any other method panics, which is what we want in a test.
type fakeAPI struct {
	client.APIClient

	createErr  error
	exitCode   int64
	stdout     string
	stderr     string
	pingErr    error
	containers []container.Summary

	created []*container.Config
	hosts   []*container.HostConfig
	started []string
	removed []string
}

func (f *fakeAPI) ContainerCreate(_ context.Context, cfg *container.Config, host *container.HostConfig,
	_ *network.NetworkingConfig, _ *ocispec.Platform, _ string) (container.CreateResponse, error) {
	if f.createErr != nil {
		return container.CreateResponse{}, f.createErr
	}
	f.created = append(f.created, cfg)
	f.hosts = append(f.hosts, host)
	return container.CreateResponse{ID: "c0ffee"}, nil
}

func (f *fakeAPI) ContainerWait(_ context.Context, _ string, _ container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	resCh := make(chan container.WaitResponse, 1)
	resCh <- container.WaitResponse{StatusCode: f.exitCode}
	return resCh, make(chan error)
}

func (f *fakeAPI) ContainerStart(_ context.Context, id string, _ container.StartOptions) error {
	f.started = append(f.started, id)
	return nil
}

func (f *fakeAPI) ContainerLogs(_ context.Context, _ string, _ container.LogsOptions) (io.ReadCloser, error) {
	var buf bytes.Buffer
	_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte(f.stdout))
	_, _ = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte(f.stderr))
	return io.NopCloser(&buf), nil
}

func (f *fakeAPI) ContainerRemove(_ context.Context, id string, _ container.RemoveOptions) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeAPI) ContainerList(_ context.Context, _ container.ListOptions) ([]container.Summary, error) {
	return f.containers, nil
}

func (f *fakeAPI) Ping(_ context.Context) (types.Ping, error) {
	return types.Ping{}, f.pingErr
}

func (f *fakeAPI) Close() error { return nil }

func testSpec() ToolSpec {
	return ToolSpec{
		Image:     "buildtools:ltsc2022",
		Isolation: "process",
		HostDir:   "/home/dev/App",
		Workdir:   `C:\src`,
		Cmd:       []string{"msbuild", `C:\src\App.sln`, "/t:Lib"},
		Step:      "msbuild Lib.vcxproj (x64)",
	}
}

// TestBuildContainerConfig verifies the create-request mapping: image,
// command, bind mount, isolation and labels.
func TestBuildContainerConfig(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	cfg, host := buildContainerConfig(testSpec(), now)

	assert.Equal(t, "buildtools:ltsc2022", cfg.Image)
	assert.Equal(t, []string{"msbuild", `C:\src\App.sln`, "/t:Lib"}, []string(cfg.Cmd))
	assert.Equal(t, `C:\src`, cfg.WorkingDir)
	assert.False(t, cfg.Tty, "logs are demultiplexed with stdcopy, which requires a non-TTY container")
	assert.Equal(t, ManagedByValue, cfg.Labels[LabelManagedBy])
	assert.Equal(t, "msbuild Lib.vcxproj (x64)", cfg.Labels[LabelStep])
	assert.Equal(t, "2026-10-18T09:30:00Z", cfg.Labels[LabelCreatedAt])

	assert.Equal(t, []string{`/home/dev/App:C:\src`}, host.Binds)
	assert.Equal(t, container.Isolation("process"), host.Isolation)
}

func TestBuildContainerConfig_DefaultIsolation(t *testing.T) {
	spec := testSpec()
	spec.Isolation = ""
	_, host := buildContainerConfig(spec, time.Now())
	assert.Empty(t, string(host.Isolation))
}

// TestRunTool verifies the happy path: output is split onto the right
// streams, the exit code is returned, and the container is removed.
func TestRunTool(t *testing.T) {
	api := &fakeAPI{exitCode: 0, stdout: "Build succeeded.\n", stderr: "warning C4996\n"}
	c := NewClientFromAPI(api)

	var stdout, stderr bytes.Buffer
	code, err := RunTool(context.Background(), c, testSpec(), &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, int64(0), code)
	assert.Equal(t, "Build succeeded.\n", stdout.String())
	assert.Equal(t, "warning C4996\n", stderr.String())
	assert.Equal(t, []string{"c0ffee"}, api.started)
	assert.Equal(t, []string{"c0ffee"}, api.removed, "container must be removed after the run")
}

// TestRunTool_NonZeroExit verifies that a failing tool is reported through
// the status code, not as an error.
func TestRunTool_NonZeroExit(t *testing.T) {
	api := &fakeAPI{exitCode: 1}
	code, err := RunTool(context.Background(), NewClientFromAPI(api), testSpec(), io.Discard, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, int64(1), code)
	assert.Equal(t, []string{"c0ffee"}, api.removed)
}

func TestRunTool_CreateFails(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("No such image: buildtools:ltsc2022")}
	_, err := RunTool(context.Background(), NewClientFromAPI(api), testSpec(), io.Discard, io.Discard)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDockerNotRunning, cliErr.Code)
	assert.Contains(t, err.Error(), "buildtools:ltsc2022")
	assert.Empty(t, api.removed, "nothing was created, nothing to remove")
}

// TestRemoveStaleContainers verifies that only managed containers are
// removed, even if the daemon returns unrelated ones.
func TestRemoveStaleContainers(t *testing.T) {
	api := &fakeAPI{containers: []container.Summary{
		{ID: "stale1", Labels: map[string]string{LabelManagedBy: ManagedByValue}},
		{ID: "other", Labels: map[string]string{"com.example": "x"}},
		{ID: "stale2", Labels: map[string]string{LabelManagedBy: ManagedByValue}},
	}}

	n, err := RemoveStaleContainers(context.Background(), NewClientFromAPI(api))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"stale1", "stale2"}, api.removed)
}

func TestPing(t *testing.T) {
	c := NewClientFromAPI(&fakeAPI{})
	assert.NoError(t, c.Ping(context.Background()))

	c = NewClientFromAPI(&fakeAPI{pingErr: errors.New("connection refused")})
	err := c.Ping(context.Background())
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDockerNotRunning, cliErr.Code)
}

func TestDetectUnixSocket(t *testing.T) {
	_, err := detectUnixSocket([]string{"/nonexistent/docker.sock"})
	assert.Error(t, err)
}
