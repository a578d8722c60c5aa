package vm

import "github.com/strand-lang/strand/lang/value"

// frame records one active function invocation: its closure, instruction
// pointer, and the base slot into the VM's shared value stack where its
// locals begin (slot 0 of every frame is the closure being called itself,
// already on the stack at the point CALL transfers control, so parameters
// start at slot 1 -- see compiler.compileFunctionBody).
type frame struct {
	closure *value.Closure
	ip      int
	base    int
}
