package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/loxlang/clox/lang/compiler"
)

// Disassemble compiles a source file and prints its bytecode instead of
// running it, recursing into every nested function constant so the whole
// call graph the compiler produced is visible.
func (c *Cmd) Disassemble(_ context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return fmt.Errorf("%w: %s", errIO, err)
	}

	proto, err := compiler.Compile(src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return errCompile
	}

	disassembleProto(stdio.Stdout, proto, "<script>")
	return nil
}

func disassembleProto(w io.Writer, proto *compiler.FunctionProto, name string) {
	compiler.Disassemble(w, proto.Chunk, name)
	for _, c := range proto.Chunk.Constants {
		if nested, ok := c.(*compiler.FunctionProto); ok {
			nestedName := nested.Name
			if nestedName == "" {
				nestedName = "<anonymous>"
			}
			disassembleProto(w, nested, nestedName)
		}
	}
}
