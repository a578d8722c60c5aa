package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/strand-lang/strand/lang/builtins"
	"github.com/strand-lang/strand/lang/vm"
)

// Run compiles and executes each file in turn, stopping at the first
// compile or runtime failure.
func (c *Cmd) Run(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := runFile(stdio, path); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}
	}
	return nil
}

func runFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	v := vm.New(vm.Config{Stdout: stdio.Stdout})
	builtins.Register(v)

	fn, diags := v.Compile(src, path)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintf(stdio.Stderr, "%s:%d:%d: %s: %s\n", path, d.Line, d.Col, d.Kind, d.Message)
		}
		return fmt.Errorf("%d compile error(s)", len(diags))
	}

	if _, rerr := v.Run(fn); rerr != nil {
		return rerr
	}
	return nil
}
