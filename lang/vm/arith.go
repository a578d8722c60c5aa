package vm

import (
	"errors"

	"github.com/strand-lang/strand/lang/value"
)

// classifyArithErr turns an error from the value package's Add/Sub/Mul/Div
// /Mod/Neg/Compare into the runtime error kind it corresponds to: division
// and modulo by zero get their own documented kind, everything else from
// those functions is a type mismatch.
func classifyArithErr(err error) ErrorKind {
	if errors.Is(err, value.ErrDivByZero) {
		return DivisionByZero
	}
	return TypeMismatch
}
