package compiler

import (
	"fmt"
	"strings"

	"github.com/strand-lang/strand/lang/value"
)

// Disassemble renders fn and every function reachable through its constant
// pool as human-readable bytecode listings, one instruction per line with
// its byte offset and source line. It exists for debugging and for
// tests that want to assert on emitted shape without decoding raw bytes.
func Disassemble(fn *value.Function) string {
	var b strings.Builder
	seen := make(map[*value.Function]bool)
	disassembleOne(&b, fn, seen)
	return b.String()
}

func disassembleOne(b *strings.Builder, fn *value.Function, seen map[*value.Function]bool) {
	if seen[fn] {
		return
	}
	seen[fn] = true

	name := fn.Name
	if name == "" {
		name = "<script>"
	}
	fmt.Fprintf(b, "function %s: arity=%d maxstack=%d locals=%d\n", name, fn.Arity, fn.MaxStack, fn.NumLocal)

	var nested []*value.Function
	code := fn.Code
	for ip := 0; ip < len(code); {
		op := Opcode(code[ip])
		line := 0
		if ip < len(fn.Lines) {
			line = int(fn.Lines[ip])
		}
		start := ip
		ip++

		switch op {
		case CLOSURE:
			constIdx := u16At(code, ip)
			ip += 2
			n := int(code[ip])
			ip++
			descs := make([]string, 0, n)
			for i := 0; i < n; i++ {
				isLocal := code[ip] != 0
				ip++
				idx := u16At(code, ip)
				ip += 2
				kind := "upval"
				if isLocal {
					kind = "local"
				}
				descs = append(descs, fmt.Sprintf("%s:%d", kind, idx))
			}
			fmt.Fprintf(b, "%04d  line %-4d %-16s const=%d [%s]\n", start, line, op, constIdx, strings.Join(descs, ","))
			if int(constIdx) < len(fn.Consts) {
				if nf, ok := fn.Consts[constIdx].AsObject().(*value.Function); ok {
					nested = append(nested, nf)
				}
			}
			continue
		case INT_SMALL, CALL:
			arg := int8(code[ip])
			ip++
			fmt.Fprintf(b, "%04d  line %-4d %-16s %d\n", start, line, op, arg)
			continue
		}

		sz := operandSize(op)
		switch sz {
		case 0:
			fmt.Fprintf(b, "%04d  line %-4d %-16s\n", start, line, op)
		case 2:
			arg := u16At(code, ip)
			ip += 2
			if op == JUMP || op == JUMP_IF_FALSE {
				rel := int16(arg)
				fmt.Fprintf(b, "%04d  line %-4d %-16s %d -> %d\n", start, line, op, rel, start+3+int(rel))
			} else if op == LOOP {
				fmt.Fprintf(b, "%04d  line %-4d %-16s %d -> %d\n", start, line, op, arg, start+3-int(arg))
			} else if op == ITER_NEXT {
				rel := int16(arg)
				fmt.Fprintf(b, "%04d  line %-4d %-16s %d -> %d\n", start, line, op, rel, start+3+int(rel))
			} else if isConstRef(op) {
				fmt.Fprintf(b, "%04d  line %-4d %-16s %d %s\n", start, line, op, arg, constComment(fn, arg))
			} else {
				fmt.Fprintf(b, "%04d  line %-4d %-16s %d\n", start, line, op, arg)
			}
		}
	}

	for _, nf := range nested {
		b.WriteString("\n")
		disassembleOne(b, nf, seen)
	}
}

func isConstRef(op Opcode) bool {
	switch op {
	case CONST, GET_GLOBAL, SET_GLOBAL, DEF_GLOBAL, MEMBER_GET, MEMBER_SET:
		return true
	default:
		return false
	}
}

func constComment(fn *value.Function, idx uint16) string {
	if int(idx) >= len(fn.Consts) {
		return ""
	}
	return fmt.Sprintf("; %s", fn.Consts[idx].String())
}

func u16At(code []byte, i int) uint16 {
	return uint16(code[i])<<8 | uint16(code[i+1])
}
