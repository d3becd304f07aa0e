// Package model defines the domain types for the nuget-cpp CLI.
//
// All entities in this package are transient: solutions, projects and
// packaging directories are discovered fresh on every invocation, and
// Options is built once from the command line and never mutated afterwards.
package model

import (
	"fmt"
	"strings"
)

// Architecture is a target CPU platform passed to msbuild as
// /property:Platform=<arch>. The string value is the canonical spelling.
type Architecture string

const (
	// ArchX64 is 64-bit x86 (AMD64).
	ArchX64 Architecture = "x64"

	// ArchX86 is 32-bit x86.
	ArchX86 Architecture = "x86"

	// ArchARM is 32-bit ARM.
	ArchARM Architecture = "ARM"

	// ArchARM64 is 64-bit ARM.
	ArchARM64 Architecture = "ARM64"
)

// AllArchitectures returns the full architecture set in the canonical order
// used when --all is given without explicit --build values.
//
// A fresh slice is returned on every call so callers can keep it without
// worrying about aliasing.
func AllArchitectures() []Architecture {
	return []Architecture{ArchX64, ArchX86, ArchARM64, ArchARM}
}

// String returns the canonical spelling of the architecture.
func (a Architecture) String() string {
	return string(a)
}

// IsValid checks whether the Architecture is one of the four known values.
// The comparison is exact: "arm" is not valid, ParseArchitecture("arm") is.
func (a Architecture) IsValid() bool {
	switch a {
	case ArchX64, ArchX86, ArchARM, ArchARM64:
		return true
	default:
		return false
	}
}

// ParseArchitecture converts a user-supplied token to an Architecture.
// Matching is case-insensitive ("arm64", "Arm64" and "ARM64" are all ARM64).
func ParseArchitecture(s string) (Architecture, error) {
	for _, a := range []Architecture{ArchX64, ArchX86, ArchARM, ArchARM64} {
		if strings.EqualFold(s, string(a)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid architecture %q (valid: x64, x86, ARM, ARM64)", s)
}

// Options is the typed configuration produced by the argument parser.
//
// The raw flag fields (All, Restore, Pack, Architectures) mirror the command
// line. Call Resolve to apply the --all implications before use.
type Options struct {
	// Dir is the working directory override from --dir. Empty means the
	// current process directory is used as-is.
	Dir string

	// All requests restore, build for every architecture, and pack.
	All bool

	// Restore requests `nuget restore` for every discovered project.
	Restore bool

	// Pack requests `nuget pack` for the discovered packaging directories.
	Pack bool

	// Architectures holds the --build values in command-line order.
	Architectures []Architecture

	// ConfigPath is an explicit project configuration file (--config).
	ConfigPath string

	// DryRun prints the commands instead of executing them.
	DryRun bool
}

// Resolve returns a copy of the options with the --all implications applied:
// restore and pack are switched on, and the full canonical architecture set
// is used when no --build values were given. Explicit --build values are kept
// in their command-line order even under --all.
func (o Options) Resolve() Options {
	resolved := o
	resolved.Architectures = append([]Architecture(nil), o.Architectures...)

	if o.All {
		resolved.Restore = true
		resolved.Pack = true
		if len(resolved.Architectures) == 0 {
			resolved.Architectures = AllArchitectures()
		}
	}
	return resolved
}

// Build reports whether at least one build step is requested.
func (o Options) Build() bool {
	return len(o.Architectures) > 0
}

// HasAction reports whether any of restore, build or pack is requested.
// A run with no action has nothing to do.
func (o Options) HasAction() bool {
	return o.All || o.Restore || o.Pack || o.Build()
}

// Project is a buildable project directory: an immediate subdirectory of the
// working directory that contains a packaging directory.
type Project struct {
	// Dir is the absolute path to the project directory.
	Dir string `json:"dir"`

	// File is the absolute path to the single project file in Dir.
	File string `json:"file"`
}

// Name returns the base name of the project file (e.g. "Lib.vcxproj").
func (p Project) Name() string {
	i := strings.LastIndexAny(p.File, `/\`)
	return p.File[i+1:]
}

// Package is a resolved packaging directory ready for `nuget pack`.
type Package struct {
	// Dir is the absolute path to the packaging directory.
	Dir string `json:"dir"`

	// Manifest is the absolute path to the single .nuspec file in Dir.
	Manifest string `json:"manifest"`

	// Version is the trimmed content of the VERSION file.
	Version string `json:"version"`
}

// ExitCode defines the CLI exit codes. Scripts and CI systems can rely on
// these to tell discovery problems apart from tool failures.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitUsage indicates invalid command-line input, such as an
	// unknown architecture token.
	ExitUsage ExitCode = 2

	// ExitNotFound indicates a required file (solution, project file,
	// manifest, VERSION) does not exist.
	ExitNotFound ExitCode = 3

	// ExitAmbiguous indicates more than one candidate was found where
	// exactly one is required.
	ExitAmbiguous ExitCode = 4

	// ExitCommandFailed indicates an external tool exited with a
	// non-zero status.
	ExitCommandFailed ExitCode = 5

	// ExitIOError indicates a directory or file could not be read.
	ExitIOError ExitCode = 6

	// ExitToolNotFound indicates an external tool executable could not
	// be located on PATH.
	ExitToolNotFound ExitCode = 7

	// ExitDockerNotRunning indicates the Docker daemon is not accessible
	// when a build container is configured.
	ExitDockerNotRunning ExitCode = 8

	// ExitInvalidConfig indicates the project configuration file could
	// not be parsed or failed validation.
	ExitInvalidConfig ExitCode = 9
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
