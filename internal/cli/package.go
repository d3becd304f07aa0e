package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/nuget-cpp/internal/config"
	"github.com/shinji-kodama/nuget-cpp/internal/docker"
	"github.com/shinji-kodama/nuget-cpp/internal/model"
	"github.com/shinji-kodama/nuget-cpp/internal/orchestrator"
	"github.com/shinji-kodama/nuget-cpp/internal/runner"
)

// runPackage is the main logic of the root command. It switches to the
// requested directory, loads the configuration, picks a runner and runs the
// orchestrator.
func runPackage(cmd *cobra.Command, opts model.Options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()

	// In JSON mode stdout carries only the result document, so step
	// announcements and dry-run command lines move to stderr.
	progress := out
	if IsJSONOutput() {
		progress = cmd.ErrOrStderr()
	}

	// Step 1: Change directory before anything is discovered.
	if opts.Dir != "" {
		fmt.Fprintf(progress, "Using %s...\n", opts.Dir)
		if err := os.Chdir(opts.Dir); err != nil {
			code := model.ExitIOError
			if errors.Is(err, fs.ErrNotExist) {
				code = model.ExitNotFound
			}
			return model.WrapCLIError(code, fmt.Sprintf("cannot change to directory %s", opts.Dir), err)
		}
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitIOError, "failed to determine working directory", err)
	}
	VerboseLog("Working directory: %s", workingDir)

	// Step 2: Load nuget-cpp.yaml / nuget-cpp.json, or the defaults.
	cfg, err := config.Load(workingDir, opts.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Path != "" {
		VerboseLog("Loaded configuration from %s", cfg.Path)
	}

	// Step 3: Choose how tools are executed.
	r, cleanup, err := newRunner(ctx, cfg, workingDir, opts.DryRun, progress)
	if err != nil {
		return err
	}
	defer cleanup()

	// Step 4: Run restore, build and pack.
	orch := orchestrator.New(r, cfg,
		orchestrator.WithProgress(progress),
		orchestrator.WithVerbose(VerboseLog),
	)
	result, err := orch.Run(ctx, workingDir, opts.Resolve())
	if err != nil {
		return err
	}

	// Step 5: Output the result.
	printPackageResult(out, result, opts.DryRun)
	return nil
}

// newRunner returns the runner for this invocation along with a cleanup
// function that releases whatever the runner holds.
func newRunner(ctx context.Context, cfg *config.Config, workingDir string, dryRun bool, progress io.Writer) (runner.Runner, func(), error) {
	noop := func() {}

	if dryRun {
		VerboseLog("Dry run: commands are printed, not executed")
		return runner.NewDryRunner(progress), noop, nil
	}

	if !cfg.Container.Enabled() {
		return runner.NewExecRunner(), noop, nil
	}

	cli, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() { _ = cli.Close() }

	if err := cli.Ping(ctx); err != nil {
		closeClient()
		return nil, nil, err
	}
	VerboseLog("Connected to Docker daemon, using image %s", cfg.Container.Image)

	// Containers left behind by an interrupted run are removed up front.
	removed, err := docker.RemoveStaleContainers(ctx, cli)
	if err != nil {
		VerboseLog("Warning: failed to remove stale containers: %v", err)
	} else if removed > 0 {
		VerboseLog("Removed %d stale container(s)", removed)
	}

	return runner.NewDockerRunner(cli, cfg.Container, workingDir), closeClient, nil
}

// printPackageResult outputs the run summary in text or JSON format.
func printPackageResult(w io.Writer, result *orchestrator.Result, dryRun bool) {
	if IsJSONOutput() {
		printPackageResultJSON(w, result, dryRun)
	} else {
		printPackageResultText(w, result, dryRun)
	}
}

// printPackageResultJSON outputs the run summary as structured JSON.
func printPackageResultJSON(w io.Writer, result *orchestrator.Result, dryRun bool) {
	doc := struct {
		*orchestrator.Result
		DryRun bool `json:"dryRun,omitempty"`
	}{result, dryRun}

	data, _ := json.MarshalIndent(doc, "", "  ")
	fmt.Fprintln(w, string(data))
}

// printPackageResultText outputs the run summary as human-readable text.
func printPackageResultText(w io.Writer, result *orchestrator.Result, dryRun bool) {
	verb := "Done"
	if dryRun {
		verb = "Dry run done"
	}
	fmt.Fprintf(w, "%s: %s, %s, %s\n", verb,
		plural(len(result.Restored), "project restored", "projects restored"),
		plural(len(result.Built), "build", "builds"),
		plural(len(result.Packed), "package packed", "packages packed"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
