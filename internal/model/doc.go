// Package model defines the domain types and value objects for the
// nuget-cpp CLI.
//
// This package contains pure data structures with no external dependencies.
// Architectures, projects and packages are transient values rebuilt from the
// filesystem on every run; there is no persistent state.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
