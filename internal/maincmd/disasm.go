package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/strand-lang/strand/lang/compiler"
	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/value"
)

// Disasm compiles each file without running it and prints the resulting
// bytecode listing for the top-level function and every function nested
// inside it.
func (c *Cmd) Disasm(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := disasmFile(stdio, path); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}
	}
	return nil
}

func disasmFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	collector := gc.New(gc.Config{})
	strings := value.NewTable(collector)

	fn, diags := compiler.Compile(src, path, collector, strings)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(stdio.Stderr, "%s:%d:%d: %s: %s\n", path, d.Line, d.Col, d.Kind, d.Message)
		}
		return fmt.Errorf("%d compile error(s)", len(diags))
	}

	fmt.Fprint(stdio.Stdout, compiler.Disassemble(fn))
	return nil
}
