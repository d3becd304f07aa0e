package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// writeFile is a test helper that writes content to dir/name.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// requireExitCode asserts that err is a *model.CLIError with the given code.
func requireExitCode(t *testing.T, err error, code model.ExitCode) {
	t.Helper()
	require.Error(t, err)
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "error should be a *model.CLIError, got %T", err)
	assert.Equal(t, code, cliErr.Code)
}

// TestLoad_NoFile verifies that the defaults are used when no
// configuration file exists.
func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "nuget", cfg.Tools.Restore)
	assert.Equal(t, "msbuild", cfg.Tools.Build)
	assert.Equal(t, "nuget", cfg.Tools.Pack)
	assert.Equal(t, "Release", cfg.Configuration)
	assert.Equal(t, "nuget", cfg.PackagingDir)
	assert.Equal(t, "VERSION", cfg.VersionFile)
	assert.Equal(t, ".sln", cfg.Extensions.Solution)
	assert.Equal(t, ".vcxproj", cfg.Extensions.Project)
	assert.Equal(t, ".nuspec", cfg.Extensions.Manifest)
	assert.False(t, cfg.Container.Enabled())
	assert.Empty(t, cfg.Path)
}

// TestLoad_YAML verifies that YAML values override defaults while unset
// fields keep their default.
func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nuget-cpp.yaml", `
tools:
  build: C:\BuildTools\MSBuild\Current\Bin\MSBuild.exe
configuration: Debug
container:
  image: mcr.microsoft.com/dotnet/framework/sdk:4.8
  isolation: process
`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, `C:\BuildTools\MSBuild\Current\Bin\MSBuild.exe`, cfg.Tools.Build)
	assert.Equal(t, "nuget", cfg.Tools.Restore)
	assert.Equal(t, "Debug", cfg.Configuration)
	assert.Equal(t, "nuget", cfg.PackagingDir)
	assert.True(t, cfg.Container.Enabled())
	assert.Equal(t, "process", cfg.Container.Isolation)
	assert.Equal(t, DefaultContainerWorkdir, cfg.Container.Workdir)
}

// TestLoad_JSONC verifies that comments and trailing commas are accepted
// in nuget-cpp.json.
func TestLoad_JSONC(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nuget-cpp.json", `{
  // Packaging lives next to the solution in this repo.
  "packagingDir": "pkg",
  "versionFile": "version.txt",
  /* custom project flavour */
  "extensions": {
    "project": ".vcproj",
  },
}`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)

	assert.Equal(t, "pkg", cfg.PackagingDir)
	assert.Equal(t, "version.txt", cfg.VersionFile)
	assert.Equal(t, ".vcproj", cfg.Extensions.Project)
	assert.Equal(t, ".sln", cfg.Extensions.Solution)
}

// TestLoad_Priority verifies that .yaml wins over .json when both exist.
func TestLoad_Priority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nuget-cpp.json", `{"configuration": "FromJSON"}`)
	writeFile(t, dir, "nuget-cpp.yaml", "configuration: FromYAML\n")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "FromYAML", cfg.Configuration)
}

// TestLoad_ExplicitPath verifies that --config paths are resolved relative
// to the working directory.
func TestLoad_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "build"), 0755))
	writeFile(t, filepath.Join(dir, "build"), "ci.yml", "configuration: CI\n")

	cfg, err := Load(dir, filepath.Join("build", "ci.yml"))
	require.NoError(t, err)
	assert.Equal(t, "CI", cfg.Configuration)
}

func TestLoad_ExplicitPathMissing(t *testing.T) {
	_, err := Load(t.TempDir(), "missing.yaml")
	requireExitCode(t, err, model.ExitNotFound)
}

// TestLoad_UnknownKey verifies that misspelled keys are rejected.
func TestLoad_UnknownKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nuget-cpp.yaml", "configuraton: Debug\n")

	_, err := Load(dir, "")
	requireExitCode(t, err, model.ExitInvalidConfig)

	dir = t.TempDir()
	writeFile(t, dir, "nuget-cpp.json", `{"tool": {}}`)

	_, err = Load(dir, "")
	requireExitCode(t, err, model.ExitInvalidConfig)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nuget-cpp.yaml", "tools: [unterminated\n")

	_, err := Load(dir, "")
	requireExitCode(t, err, model.ExitInvalidConfig)
}

// TestLoad_EmptyFile verifies that an empty file means "all defaults".
func TestLoad_EmptyFile(t *testing.T) {
	for _, name := range []string{"nuget-cpp.yaml", "nuget-cpp.json"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeFile(t, dir, name, "")

			cfg, err := Load(dir, "")
			require.NoError(t, err)
			assert.Equal(t, path, cfg.Path)
			assert.Equal(t, "Release", cfg.Configuration)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"blank tool", func(c *Config) { c.Tools.Pack = "  " }, "tools.pack"},
		{"extension without dot", func(c *Config) { c.Extensions.Solution = "sln" }, "extensions.solution"},
		{"extension only a dot", func(c *Config) { c.Extensions.Manifest = "." }, "extensions.manifest"},
		{"nested packaging dir", func(c *Config) { c.PackagingDir = "a/b" }, "packagingDir"},
		{"nested version file", func(c *Config) { c.VersionFile = `x\VERSION` }, "versionFile"},
		{"unknown isolation", func(c *Config) { c.Container.Isolation = "vm" }, "container.isolation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
