// Package orchestrator sequences the restore, build and pack steps of a
// nuget-cpp run.
//
// Execution is strictly sequential and stops at the first failure: a build
// failing for one architecture aborts the remaining architectures, the
// remaining projects and the pack step. External tools are black boxes; the
// orchestrator only supplies their arguments and checks the exit status
// reported by the runner.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/shinji-kodama/nuget-cpp/internal/config"
	"github.com/shinji-kodama/nuget-cpp/internal/discovery"
	"github.com/shinji-kodama/nuget-cpp/internal/model"
	"github.com/shinji-kodama/nuget-cpp/internal/runner"
)

// Orchestrator drives one nuget-cpp run.
type Orchestrator struct {
	runner   runner.Runner
	cfg      *config.Config
	progress io.Writer
	verbosef func(format string, args ...interface{})
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithProgress sets where the one-line step announcements are written.
// The default discards them.
func WithProgress(w io.Writer) Option {
	return func(o *Orchestrator) { o.progress = w }
}

// WithVerbose sets the diagnostic logger used for discovery details.
func WithVerbose(fn func(format string, args ...interface{})) Option {
	return func(o *Orchestrator) { o.verbosef = fn }
}

// New creates an Orchestrator that executes tools through r using the
// tool names and discovery settings of cfg.
func New(r runner.Runner, cfg *config.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		runner:   r,
		cfg:      cfg,
		progress: io.Discard,
		verbosef: func(string, ...interface{}) {},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Build records one successful msbuild invocation.
type Build struct {
	Project      string             `json:"project"`
	Target       string             `json:"target"`
	Architecture model.Architecture `json:"architecture"`
}

// Result summarizes the steps that completed.
type Result struct {
	Solution string          `json:"solution,omitempty"`
	Restored []string        `json:"restored,omitempty"`
	Built    []Build         `json:"built,omitempty"`
	Packed   []model.Package `json:"packed,omitempty"`
}

// run holds the lazily discovered state of a single Run call.
type run struct {
	*Orchestrator
	workingDir string
	solution   string
	projects   []model.Project
	discovered bool
	result     *Result
}

// Run executes the steps requested by opts in workingDir, which must be
// absolute. opts is expected to be resolved (see model.Options.Resolve).
//
// The returned Result lists what completed, and is populated even when an
// error stops the run part-way.
func (o *Orchestrator) Run(ctx context.Context, workingDir string, opts model.Options) (*Result, error) {
	r := &run{Orchestrator: o, workingDir: workingDir, result: &Result{}}

	if opts.Restore {
		if err := r.restore(ctx); err != nil {
			return r.result, err
		}
	}

	if opts.Build() {
		if err := r.build(ctx, opts.Architectures); err != nil {
			return r.result, err
		}
	}

	if opts.Pack {
		if err := r.pack(ctx); err != nil {
			return r.result, err
		}
	}

	return r.result, nil
}

// discover finds the solution and the projects once per run. Pack of a
// root-level packaging directory never calls it, so a packaging-only
// layout does not need a solution file.
func (r *run) discover() error {
	if r.discovered {
		return nil
	}

	solution, err := discovery.FindSolution(r.workingDir, r.cfg.Extensions.Solution)
	if err != nil {
		return err
	}
	r.verbosef("Found solution %s", solution)

	projects, err := r.findProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return model.NewCLIError(model.ExitNotFound,
			fmt.Sprintf("no project directories found in %s (expected subdirectories containing a %s directory)",
				r.workingDir, r.cfg.PackagingDir))
	}

	r.solution = solution
	r.projects = projects
	r.discovered = true
	r.result.Solution = solution
	return nil
}

func (r *run) findProjects() ([]model.Project, error) {
	projects, err := discovery.FindProjects(r.workingDir, r.cfg.PackagingDir, r.cfg.Extensions.Project)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		r.verbosef("Found project %s", p.File)
	}
	return projects, nil
}

// restore runs `<restore-tool> restore <project> -SolutionDirectory <dir>`
// for every project.
func (r *run) restore(ctx context.Context) error {
	if err := r.discover(); err != nil {
		return err
	}

	solutionDir := filepath.Dir(r.solution)
	for _, p := range r.projects {
		r.announce("Restoring %s...", p.Name())
		inv := runner.Invocation{
			Tool:  r.cfg.Tools.Restore,
			Args:  RestoreArgs(p.File, solutionDir),
			Label: fmt.Sprintf("%s restore %s", r.cfg.Tools.Restore, p.Name()),
		}
		if err := r.runner.Run(ctx, inv); err != nil {
			return err
		}
		r.result.Restored = append(r.result.Restored, p.File)
	}
	return nil
}

// build runs msbuild for every project and architecture, projects in the
// outer loop so each project's platforms build back to back.
func (r *run) build(ctx context.Context, archs []model.Architecture) error {
	if err := r.discover(); err != nil {
		return err
	}

	for _, p := range r.projects {
		target := discovery.BuildTarget(p.File)
		for _, arch := range archs {
			r.announce("Building %s for %s...", p.Name(), arch)
			inv := runner.Invocation{
				Tool:  r.cfg.Tools.Build,
				Args:  BuildArgs(r.solution, target, r.cfg.Configuration, arch),
				Label: fmt.Sprintf("%s %s (%s)", r.cfg.Tools.Build, p.Name(), arch),
			}
			if err := r.runner.Run(ctx, inv); err != nil {
				return err
			}
			r.result.Built = append(r.result.Built, Build{Project: p.File, Target: target, Architecture: arch})
		}
	}
	return nil
}

// pack packages the root packaging directory if there is one, otherwise
// the packaging directory of every project.
func (r *run) pack(ctx context.Context) error {
	dirs, err := r.packagingDirs()
	if err != nil {
		return err
	}

	// Resolve every package before running the first pack so that a
	// missing VERSION in the last project fails fast.
	packages := make([]model.Package, 0, len(dirs))
	for _, dir := range dirs {
		pkg, err := discovery.FindPackage(dir, r.cfg.Extensions.Manifest, r.cfg.VersionFile)
		if err != nil {
			return err
		}
		r.verbosef("Found manifest %s (version %s)", pkg.Manifest, pkg.Version)
		packages = append(packages, pkg)
	}

	for _, pkg := range packages {
		name := filepath.Base(pkg.Manifest)
		r.announce("Packing %s %s...", name, pkg.Version)
		inv := runner.Invocation{
			Tool:  r.cfg.Tools.Pack,
			Args:  PackArgs(pkg.Manifest, pkg.Version),
			Label: fmt.Sprintf("%s pack %s", r.cfg.Tools.Pack, name),
		}
		if err := r.runner.Run(ctx, inv); err != nil {
			return err
		}
		r.result.Packed = append(r.result.Packed, pkg)
	}
	return nil
}

// packagingDirs returns the directories to pack.
func (r *run) packagingDirs() ([]string, error) {
	if discovery.HasPackagingDir(r.workingDir, r.cfg.PackagingDir) {
		dir := filepath.Join(r.workingDir, r.cfg.PackagingDir)
		r.verbosef("Using root packaging directory %s", dir)
		return []string{dir}, nil
	}

	var dirs []string
	if r.discovered {
		for _, p := range r.projects {
			dirs = append(dirs, p.Dir)
		}
	} else {
		// Packing alone does not need project files, only the project
		// directories that carry a packaging directory.
		found, err := discovery.FindProjectDirs(r.workingDir, r.cfg.PackagingDir)
		if err != nil {
			return nil, err
		}
		dirs = found
	}
	if len(dirs) == 0 {
		return nil, model.NewCLIError(model.ExitNotFound,
			fmt.Sprintf("no %s directory found in %s or any of its subdirectories",
				r.cfg.PackagingDir, r.workingDir))
	}

	for i, dir := range dirs {
		dirs[i] = filepath.Join(dir, r.cfg.PackagingDir)
	}
	return dirs, nil
}

func (r *run) announce(format string, args ...interface{}) {
	fmt.Fprintf(r.progress, format+"\n", args...)
}

// RestoreArgs returns the restore-tool arguments for one project.
func RestoreArgs(projectFile, solutionDir string) []string {
	return []string{"restore", projectFile, "-SolutionDirectory", solutionDir}
}

// BuildArgs returns the build-tool arguments for one project target and
// architecture.
func BuildArgs(solution, target, configuration string, arch model.Architecture) []string {
	return []string{
		solution,
		"/t:" + target,
		"/property:Configuration=" + configuration,
		"/property:Platform=" + arch.String(),
	}
}

// PackArgs returns the pack-tool arguments for one manifest.
func PackArgs(manifest, version string) []string {
	return []string{"pack", manifest, "-version", version}
}
