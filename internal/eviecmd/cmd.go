// Package eviecmd implements the evie binary's command line: flag parsing,
// the REPL loop, and the single-file runner (spec §6 "CLI surface"). It is
// kept separate from package main, mirroring the teacher's
// cmd/<bin>+internal/maincmd split, so it can be exercised by tests without
// an os.Exit in the way.
package eviecmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/evie-lang/evie/lang/evieerr"
	"github.com/evie-lang/evie/lang/vm"
)

const binName = "evie"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Interpreter for the %[1]s scripting language.

With no <path>, %[1]s starts a REPL that reads one line at a time from
standard input, appends a trailing ';' unless the line already ends with ';'
or '}', interprets it, and prints any "print" output before reading the next
line. Blank lines are skipped. The REPL runs
until standard input reaches end of file.

With a <path>, %[1]s reads and interprets the whole file, then exits.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Trace each executed instruction and the
                                 value stack to stderr.
`, binName)
)

// Cmd is the evie binary's top-level command, parsed and run by
// github.com/mna/mainer the same way the teacher's cmd/nenuphar does.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`
	Trace   bool `flag:"trace"`

	args []string
}

func (c *Cmd) SetArgs(args []string)       { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool)  {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("at most one script path may be given, got %d", len(c.args))
	}
	return nil
}

// Main parses args, then either prints help/version or runs the
// interpreter (REPL or single file), returning the process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	machine := vm.New()
	machine.Stdout = stdio.Stdout
	machine.Stderr = stdio.Stderr
	machine.Trace = c.Trace

	var err error
	if len(c.args) == 1 {
		err = runFile(machine, stdio, c.args[0])
	} else {
		err = repl(ctx, machine, stdio)
	}
	if err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

func runFile(machine *vm.VM, stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if err := machine.Interpret(string(src)); err != nil {
		fmt.Fprintln(stdio.Stderr, evieerr.ReportString(err))
		return err
	}
	return nil
}

// repl implements spec §6's REPL loop: print a prompt, read a line, skip it
// if blank, append a trailing ';' unless it already ends with ';' or '}',
// interpret it, and keep going until
// standard input reaches EOF or ctx is canceled (SIGINT). A per-line error
// is reported but does not end the session, matching an interactive REPL's
// usual behavior; only a genuine read error on stdin, or cancellation,
// ends the loop with a non-nil error. The core VM has no mid-execution
// cancellation hook (spec §5), so a signal during Interpret itself still
// runs to completion; ctx is checked between lines, which is enough to
// stop the session at the next prompt instead of requiring EOF on stdin.
func repl(ctx context.Context, machine *vm.VM, stdio mainer.Stdio) error {
	in := bufio.NewScanner(stdio.Stdin)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(stdio.Stdout, "> ")
		if !in.Scan() {
			return in.Err()
		}
		line := in.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}") {
			line += ";"
		}
		if err := machine.Interpret(line); err != nil {
			fmt.Fprintln(stdio.Stderr, evieerr.ReportString(err))
		}
	}
}
