package maincmd

import (
	"bufio"
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/loxlang/clox/lang/machine"
)

// Repl runs an interactive read-eval-print loop: one line of source per
// Interpret call, sharing a single VM (and so a single global/heap state)
// across lines, until stdin is closed. Unlike the file-runner command, a
// compile or runtime error in one line never stops the loop — only I/O
// failure reading the next line does.
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, _ []string) error {
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

	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if !scanner.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return scanner.Err()
		}
		vm.Interpret([]byte(scanner.Text()))
	}
}
