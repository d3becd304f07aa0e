// Package config loads the optional per-solution configuration file that
// overrides tool names, file suffixes and the build container.
//
// Two formats are accepted, matching what Windows C++ repositories tend to
// carry around already:
//   - nuget-cpp.yaml / nuget-cpp.yml, parsed with gopkg.in/yaml.v3
//   - nuget-cpp.json, parsed as JSONC (comments and trailing commas are
//     stripped with github.com/tidwall/jsonc before encoding/json decoding)
//
// A missing file is not an error: every field has a default that matches the
// stock nuget/msbuild layout.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// Default values used when the configuration file is absent or leaves a
// field empty.
const (
	DefaultRestoreTool      = "nuget"
	DefaultBuildTool        = "msbuild"
	DefaultPackTool         = "nuget"
	DefaultConfiguration    = "Release"
	DefaultPackagingDir     = "nuget"
	DefaultVersionFile      = "VERSION"
	DefaultSolutionExt      = ".sln"
	DefaultProjectExt       = ".vcxproj"
	DefaultManifestExt      = ".nuspec"
	DefaultContainerWorkdir = `C:\src`
)

// FileNames lists the configuration file names probed in a working
// directory, in priority order.
var FileNames = []string{"nuget-cpp.yaml", "nuget-cpp.yml", "nuget-cpp.json"}

// Config is the resolved project configuration.
type Config struct {
	// Tools names the three external executables.
	Tools Tools `yaml:"tools" json:"tools"`

	// Configuration is the msbuild configuration name (/property:Configuration).
	Configuration string `yaml:"configuration" json:"configuration"`

	// PackagingDir is the name of the directory holding the .nuspec and
	// VERSION files, both at the solution root and inside project directories.
	PackagingDir string `yaml:"packagingDir" json:"packagingDir"`

	// VersionFile is the name of the plain-text version file inside
	// PackagingDir.
	VersionFile string `yaml:"versionFile" json:"versionFile"`

	// Extensions holds the file suffixes used during discovery.
	Extensions Extensions `yaml:"extensions" json:"extensions"`

	// Container, when Image is set, runs every tool inside a Docker
	// container instead of on the host.
	Container Container `yaml:"container" json:"container"`

	// Path is the file the configuration was read from. Empty when the
	// defaults are in use.
	Path string `yaml:"-" json:"-"`
}

// Tools holds the executable names for restore, build and pack.
type Tools struct {
	Restore string `yaml:"restore" json:"restore"`
	Build   string `yaml:"build" json:"build"`
	Pack    string `yaml:"pack" json:"pack"`
}

// Extensions holds the discovery file suffixes, each including the
// leading dot.
type Extensions struct {
	Solution string `yaml:"solution" json:"solution"`
	Project  string `yaml:"project" json:"project"`
	Manifest string `yaml:"manifest" json:"manifest"`
}

// Container describes the optional build container.
type Container struct {
	// Image is the Docker image holding nuget and msbuild, typically a
	// Windows Server Core image with the VS build tools installed.
	Image string `yaml:"image" json:"image"`

	// Workdir is where the host working directory is bind-mounted
	// inside the container.
	Workdir string `yaml:"workdir" json:"workdir"`

	// Isolation is passed to Docker as the container isolation mode
	// ("process" or "hyperv" on Windows hosts). Empty uses the daemon default.
	Isolation string `yaml:"isolation" json:"isolation"`
}

// Enabled reports whether tools should run inside a container.
func (c Container) Enabled() bool {
	return c.Image != ""
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Tools: Tools{
			Restore: DefaultRestoreTool,
			Build:   DefaultBuildTool,
			Pack:    DefaultPackTool,
		},
		Configuration: DefaultConfiguration,
		PackagingDir:  DefaultPackagingDir,
		VersionFile:   DefaultVersionFile,
		Extensions: Extensions{
			Solution: DefaultSolutionExt,
			Project:  DefaultProjectExt,
			Manifest: DefaultManifestExt,
		},
		Container: Container{
			Workdir: DefaultContainerWorkdir,
		},
	}
}

// Load reads the configuration for dir.
//
// If explicitPath is non-empty it must point at an existing file, and a
// relative path is resolved against dir. Otherwise the first existing entry
// of FileNames under dir is used, and the defaults are returned when none
// exists. Returned errors are model.CLIError values with ExitInvalidConfig,
// ExitNotFound or ExitIOError.
func Load(dir, explicitPath string) (*Config, error) {
	path := explicitPath
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, model.WrapCLIError(model.ExitNotFound,
					fmt.Sprintf("configuration file not found: %s", path), err)
			}
			return nil, model.WrapCLIError(model.ExitIOError,
				fmt.Sprintf("cannot access configuration file %s", path), err)
		}
	} else {
		path = findConfigFile(dir)
		if path == "" {
			return Default(), nil
		}
	}

	return LoadFile(path)
}

// LoadFile parses a single configuration file. The format is chosen by
// extension: .json is JSONC, everything else is YAML. Empty fields are
// filled from Default and the result is validated.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(model.ExitNotFound,
				fmt.Sprintf("configuration file not found: %s", path), err)
		}
		return nil, model.WrapCLIError(model.ExitIOError,
			fmt.Sprintf("failed to read configuration file %s", path), err)
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = decodeJSONC(data, &cfg)
	} else {
		err = decodeYAML(data, &cfg)
	}
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("failed to parse configuration file %s", path), err)
	}

	cfg.applyDefaults()
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidConfig,
			fmt.Sprintf("invalid configuration file %s", path), err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values that would make discovery
// or tool invocation meaningless.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Tools.Restore) == "" {
		errs = append(errs, errors.New("tools.restore must not be empty"))
	}
	if strings.TrimSpace(c.Tools.Build) == "" {
		errs = append(errs, errors.New("tools.build must not be empty"))
	}
	if strings.TrimSpace(c.Tools.Pack) == "" {
		errs = append(errs, errors.New("tools.pack must not be empty"))
	}

	for name, ext := range map[string]string{
		"extensions.solution": c.Extensions.Solution,
		"extensions.project":  c.Extensions.Project,
		"extensions.manifest": c.Extensions.Manifest,
	} {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%s must start with '.' (got %q)", name, ext))
		}
	}

	if strings.ContainsAny(c.PackagingDir, `/\`) {
		errs = append(errs, fmt.Errorf("packagingDir must be a plain directory name (got %q)", c.PackagingDir))
	}
	if strings.ContainsAny(c.VersionFile, `/\`) {
		errs = append(errs, fmt.Errorf("versionFile must be a plain file name (got %q)", c.VersionFile))
	}

	switch c.Container.Isolation {
	case "", "default", "process", "hyperv":
	default:
		errs = append(errs, fmt.Errorf("container.isolation must be one of default, process, hyperv (got %q)", c.Container.Isolation))
	}

	return errors.Join(errs...)
}

// applyDefaults fills every empty field from Default.
func (c *Config) applyDefaults() {
	def := Default()

	setDefault(&c.Tools.Restore, def.Tools.Restore)
	setDefault(&c.Tools.Build, def.Tools.Build)
	setDefault(&c.Tools.Pack, def.Tools.Pack)
	setDefault(&c.Configuration, def.Configuration)
	setDefault(&c.PackagingDir, def.PackagingDir)
	setDefault(&c.VersionFile, def.VersionFile)
	setDefault(&c.Extensions.Solution, def.Extensions.Solution)
	setDefault(&c.Extensions.Project, def.Extensions.Project)
	setDefault(&c.Extensions.Manifest, def.Extensions.Manifest)
	setDefault(&c.Container.Workdir, def.Container.Workdir)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// findConfigFile returns the first FileNames entry that exists in dir as a
// regular file, or "" when none does.
func findConfigFile(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// decodeYAML decodes strictly: misspelled keys are reported rather than
// silently ignored.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// An empty document decodes to io.EOF; treat it as "all defaults".
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

// decodeJSONC strips comments and trailing commas, then decodes with
// encoding/json. Unknown fields are rejected for parity with YAML.
func decodeJSONC(data []byte, cfg *Config) error {
	clean := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(clean)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}
