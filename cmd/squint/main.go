// Command squint is the outer shell around the compiler core: it owns
// argument parsing, file I/O, and the exit-code mapping of §6.1. The core
// package (internal/compiler) never touches a filesystem or an exit code;
// this file is the only place that does.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dr-Loo/SQUINT/internal/compiler"
	"github.com/Dr-Loo/SQUINT/internal/diag"
	"github.com/Dr-Loo/SQUINT/internal/ir"
)

// exitError carries the process exit code alongside the message already
// written to stderr by RunE, so main can translate it without re-printing.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var ee *exitError
		if ok := asExitError(err, &ee); ok {
			os.Exit(ee.code)
		}
		// cobra's own usage/flag errors: treat as an I/O/argument failure.
		os.Exit(3)
	}
}

func asExitError(err error, target **exitError) bool {
	ee, ok := err.(*exitError)
	if ok {
		*target = ee
	}
	return ok
}

type cliFlags struct {
	out            string
	log            bool
	simulate       bool
	strictOverlays bool
}

func newRootCmd() *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:           "squint [FILE.squint]",
		Short:         "Compile a SQUINT workspace+kernel program into control text, a timeline log, and a simulation trace",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inFile := "CalibratedEPR.squint"
			if len(args) == 1 {
				inFile = args[0]
			}
			return run(inFile, flags)
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "path for control text (default <FILE>.qua.txt)")
	cmd.Flags().BoolVar(&flags.log, "log", false, "write <FILE>.log.json")
	cmd.Flags().BoolVar(&flags.simulate, "simulate", false, "write <FILE>.sim.json and <FILE>.sim.txt")
	cmd.Flags().BoolVar(&flags.strictOverlays, "strict-overlays", false, "overlay violations/malformed become hard errors")

	return cmd
}

func run(inFile string, flags cliFlags) error {
	sink := diag.New(os.Stderr)

	src, err := os.ReadFile(inFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "squint: %v\n", err)
		return &exitError{code: 3}
	}

	result, err := compiler.Compile(string(src), compiler.Options{Strict: flags.strictOverlays, Sink: sink})
	if err != nil {
		var perr *ir.ParseError
		var operr *ir.OverlayError
		switch {
		case asParseError(err, &perr):
			fmt.Fprintf(os.Stderr, "squint: %v\n", perr)
			return &exitError{code: 1}
		case asOverlayError(err, &operr):
			fmt.Fprintf(os.Stderr, "squint: %v\n", operr)
			return &exitError{code: 2}
		default:
			fmt.Fprintf(os.Stderr, "squint: %v\n", err)
			return &exitError{code: 1}
		}
	}

	outPath := flags.out
	if outPath == "" {
		outPath = withSuffix(inFile, ".qua.txt")
	}
	if err := os.WriteFile(outPath, []byte(result.ControlText()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "squint: %v\n", err)
		return &exitError{code: 3}
	}
	sink.Notice(fmt.Sprintf("wrote %s", outPath))

	if flags.log {
		logPath := withSuffix(inFile, ".log.json")
		data, err := result.MarshalLog()
		if err != nil {
			fmt.Fprintf(os.Stderr, "squint: %v\n", err)
			return &exitError{code: 3}
		}
		if err := os.WriteFile(logPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "squint: %v\n", err)
			return &exitError{code: 3}
		}
		sink.Notice(fmt.Sprintf("wrote %s", logPath))
	}

	if flags.simulate {
		simJSONPath := withSuffix(inFile, ".sim.json")
		data, err := result.MarshalSim()
		if err != nil {
			fmt.Fprintf(os.Stderr, "squint: %v\n", err)
			return &exitError{code: 3}
		}
		if err := os.WriteFile(simJSONPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "squint: %v\n", err)
			return &exitError{code: 3}
		}
		sink.Notice(fmt.Sprintf("wrote %s", simJSONPath))

		simTextPath := withSuffix(inFile, ".sim.txt")
		if err := os.WriteFile(simTextPath, []byte(result.Sim.Format()), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "squint: %v\n", err)
			return &exitError{code: 3}
		}
		sink.Notice(fmt.Sprintf("wrote %s", simTextPath))
	}

	return nil
}

func asParseError(err error, target **ir.ParseError) bool {
	pe, ok := err.(*ir.ParseError)
	if ok {
		*target = pe
	}
	return ok
}

func asOverlayError(err error, target **ir.OverlayError) bool {
	oe, ok := err.(*ir.OverlayError)
	if ok {
		*target = oe
	}
	return ok
}

// withSuffix replaces inFile's extension with suffix, e.g.
// "CalibratedEPR.squint" + ".qua.txt" -> "CalibratedEPR.qua.txt".
func withSuffix(inFile, suffix string) string {
	base := strings.TrimSuffix(inFile, filepath.Ext(inFile))
	return base + suffix
}
