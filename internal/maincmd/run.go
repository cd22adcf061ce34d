package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/loxlang/clox/lang/machine"
)

// Run compiles and executes a single source file, returning an error
// wrapping errIO, errCompile or errRuntime so Main can translate it to the
// right sysexits-style exit code.
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return fmt.Errorf("%w: %s", errIO, err)
	}

	cfg, err := loadRuntimeConfig()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid configuration: %s\n", err)
		return fmt.Errorf("%w: %s", errIO, err)
	}

	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	vm.HeapGrowthFactor = cfg.GCHeapGrowthFactor
	vm.StressGC = cfg.StressGC || c.StressGC
	vm.Trace = c.Trace

	switch vm.Interpret(src) {
	case machine.InterpretCompileError:
		return errCompile
	case machine.InterpretRuntimeError:
		return errRuntime
	default:
		return nil
	}
}
