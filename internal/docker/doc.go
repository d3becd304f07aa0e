// Package docker runs nuget-cpp's external tools inside throwaway build
// containers through the Docker Engine API.
//
// This package handles:
//   - Docker client initialization with automatic endpoint detection
//     (Windows named pipe, Linux and macOS sockets, DOCKER_HOST)
//   - Per-invocation container lifecycle: create, start, stream logs,
//     wait, remove
//   - Translating host paths in tool arguments to the container mount
//   - Labelling containers so leftovers from interrupted runs can be removed
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
