// Package runner executes the external tools (nuget, msbuild) that do the
// real work of a nuget-cpp run.
//
// The orchestrator only builds argument lists and checks success; how a
// command actually runs is decided here:
//   - ExecRunner runs the tool on the host via os/exec
//   - DockerRunner runs it inside a build container via the Docker Engine API
//   - DryRunner only prints the command line
//
// Runners never parse tool output. They only stream it to the user and
// turn a non-zero exit status into a model.CLIError with
// ExitCommandFailed, so callers can treat all three implementations the
// same way.
package runner
