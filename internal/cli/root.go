// Package cli implements the cobra-based command line of nuget-cpp.
//
// nuget-cpp has a single command: the root command parses the action flags
// into model.Options, selects a runner (host, container or dry-run) and
// hands over to the orchestrator.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/nuget-cpp/internal/model"
)

// Global flag variables shared by the whole CLI. They are bound to
// persistent flags on the root command.
var (
	// jsonOutput switches error and result output to JSON.
	jsonOutput bool

	// verbose enables [verbose] diagnostics on stderr.
	verbose bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	var opts model.Options

	rootCmd := &cobra.Command{
		Use:   "nuget-cpp",
		Short: "A tool that assists in packaging C++/WinRT components for NuGet",
		Long: `nuget-cpp restores, builds and packs native C++/WinRT components for NuGet.

It expects exactly one solution file in the working directory. Every
subdirectory that contains a nuget/ directory is a project: it must hold
exactly one project file, and its nuget/ directory holds the .nuspec
manifest and a VERSION file. A nuget/ directory next to the solution, if
present, is packed instead of the per-project ones.

Examples:
  nuget-cpp --all
  nuget-cpp -d C:\src\MyComponent -r -b x64 -b ARM64
  nuget-cpp --build x86,x64 --pack --dry-run`,

		// Positional arguments are a usage error, not a generic one.
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return usageError(cmd, err)
			}
			return nil
		},

		// SilenceUsage prevents cobra from printing usage on every error;
		// flag errors print it themselves (see SetFlagErrorFunc below).
		SilenceUsage: true,

		// SilenceErrors lets Execute format errors (text or JSON).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.HasAction() {
				return cmd.Help()
			}
			return runPackage(cmd, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Dir, "dir", "d", "", "Sets the current directory when running the tool")
	flags.BoolVarP(&opts.All, "all", "a", false, "Restores projects, builds all platforms, and packs [overrides everything]")
	flags.BoolVarP(&opts.Restore, "restore", "r", false, "Calls nuget restore for every project")
	flags.VarP(newArchListValue(&opts.Architectures), "build", "b", "Builds the solution for Release on the given platform (x64, x86, ARM, ARM64); repeatable")
	flags.BoolVarP(&opts.Pack, "pack", "p", false, "Packs the resulting files using the nuget\\ directory")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a nuget-cpp.yaml / nuget-cpp.json configuration file")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "Print the commands instead of running them")

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(cmd, err)
	})

	return rootCmd
}

// usageError prints the usage text and wraps err with ExitUsage.
func usageError(cmd *cobra.Command, err error) error {
	if !jsonOutput {
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
	}
	return model.WrapCLIError(model.ExitUsage, "invalid arguments", err)
}

// Execute runs the root command and exits with the code carried by the
// returned error. Ctrl+C cancels the context, which kills the running tool.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		// A type assertion is enough: every command path returns
		// CLIErrors unwrapped.
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error to stderr, as JSON when --json is set.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
