package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "clox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>...]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the clox programming language.

The <command> can be one of:
       run                       Compile and run a single source file.
       repl                      Start an interactive read-eval-print loop.
       disassemble               Compile a source file and print its
                                 disassembled bytecode instead of running it.

If no command is given and exactly one path is provided, it is run as if
'%[1]s run <path>' had been typed; with no path at all, it behaves as
'%[1]s repl'.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --trace                   Print each instruction as it executes.
       --stress-gc               Run a garbage collection before every
                                 allocation.
`, binName)
)

// Exit codes follow the BSD sysexits.h convention: 64 for a command-line
// usage error, 65 for a compile-time error, 70 for a runtime error, 74 for
// an I/O failure.
const (
	exitUsage   mainer.ExitCode = 64
	exitDataErr mainer.ExitCode = 65
	exitSoftErr mainer.ExitCode = 70
	exitIOErr   mainer.ExitCode = 74
)

var (
	errCompile = errors.New("compile error")
	errRuntime = errors.New("runtime error")
	errIO      = errors.New("i/o error")
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help     bool `flag:"h,help"`
	Version  bool `flag:"v,version"`
	Trace    bool `flag:"trace"`
	StressGC bool `flag:"stress-gc"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string) { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	cmdName := "repl"
	rest := c.args
	if len(c.args) > 0 {
		switch c.args[0] {
		case "run", "repl", "disassemble":
			cmdName = c.args[0]
			rest = c.args[1:]
		default:
			// no explicit command: treat the argument(s) as the path to run
			cmdName = "run"
		}
	}

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}
	c.args = rest

	if (cmdName == "run" || cmdName == "disassemble") && len(rest) != 1 {
		return fmt.Errorf("%s: exactly one file must be provided", cmdName)
	}

	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
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
	err := c.cmdFn(ctx, stdio, c.args)
	switch {
	case err == nil:
		return mainer.Success
	case errors.Is(err, errCompile):
		return exitDataErr
	case errors.Is(err, errRuntime):
		return exitSoftErr
	case errors.Is(err, errIO):
		return exitIOErr
	default:
		return exitUsage
	}
}

// valid commands are those that take a context.Context, a mainer.Stdio and
// a slice of strings as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
