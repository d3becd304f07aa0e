package runner

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Invocation is one external command to run.
type Invocation struct {
	// Tool is the executable name or path (e.g. "nuget", "msbuild").
	Tool string

	// Args are passed to the tool verbatim, without shell interpretation.
	Args []string

	// Label describes the step for error messages, e.g.
	// "msbuild Lib.vcxproj (ARM)".
	Label string
}

// String renders the invocation as a command line, quoting arguments that
// contain spaces. The result is for display only.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, quoteArg(inv.Tool))
	for _, a := range inv.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// describe returns the label, falling back to the tool name.
func (inv Invocation) describe() string {
	if inv.Label != "" {
		return inv.Label
	}
	return inv.Tool
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// Runner runs a single invocation to completion. A nil error means the
// tool exited with status 0; anything else is a *model.CLIError.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// DryRunner prints each invocation instead of running it.
type DryRunner struct {
	Out io.Writer
}

// NewDryRunner creates a DryRunner writing to out.
func NewDryRunner(out io.Writer) *DryRunner {
	return &DryRunner{Out: out}
}

// Run writes "$ <command line>" and reports success.
func (r *DryRunner) Run(_ context.Context, inv Invocation) error {
	_, err := fmt.Fprintf(r.Out, "$ %s\n", inv)
	return err
}
