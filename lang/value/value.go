// Package value implements the runtime value representation shared by the
// compiler's constant pool and the VM's operand stack: a small, copyable
// tagged scalar (Value) plus the heap-object tree rooted at Object. Every
// heap allocation is owned by a gc.Collector; Value itself never manages
// memory.
package value

import (
	"fmt"
	"math"

	"github.com/strand-lang/strand/lang/gc"
)

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindObj
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObj:
		return "object"
	}
	return "invalid"
}

// IntBits is the width of the wrapping signed integer representation:
// overflow wraps at this fixed width rather than promoting to float.
const IntBits = 48

const (
	intMax = int64(1)<<(IntBits-1) - 1
	intMin = -(int64(1) << (IntBits - 1))
)

// WrapInt truncates n to IntBits, sign-extending the result, so that
// "int + int" never silently escapes into 64-bit range.
func WrapInt(n int64) int64 {
	const shift = 64 - IntBits
	return (n << shift) >> shift
}

// Value is a small, copyable tagged struct (a kind tag, a 64-bit payload
// and an Object reference); it is not packed into a single machine word.
// The VM's operand stack and call-frame slots are flat arrays of Value. Equality for numbers uses
// numeric equality with int/float promotion (see Equals); equality for
// objects is by identity except for strings, which are interned and so
// compare equal by identity too once canonicalized.
type Value struct {
	kind Kind
	bits uint64 // bool (0/1), wrapped int64 bits, or float64 bits
	obj  Object
}

// Object is implemented by every heap-allocated value kind: strings,
// arrays, dicts, functions, closures, upvalues and native functions. It
// embeds gc.Traceable so the collector can mark and sweep it generically.
type Object interface {
	gc.Traceable
	// Type returns the short runtime type name reported in error messages
	// (e.g. "string", "array", "function").
	Type() string
	// String returns the text produced by the print family of built-ins.
	String() string
}

var Nil = Value{kind: KindNil}

func Bool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, bits: n}
}

func Int(n int64) Value {
	return Value{kind: KindInt, bits: uint64(WrapInt(n))}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, bits: math.Float64bits(f)}
}

func Obj(o Object) Value {
	if o == nil {
		return Nil
	}
	return Value{kind: KindObj, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool   { return v.kind == KindNil }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsInt() bool   { return v.kind == KindInt }
func (v Value) IsFloat() bool { return v.kind == KindFloat }
func (v Value) IsObj() bool   { return v.kind == KindObj }
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

func (v Value) AsBool() bool       { return v.bits != 0 }
func (v Value) AsInt() int64       { return int64(v.bits) }
func (v Value) AsFloat() float64   { return math.Float64frombits(v.bits) }
func (v Value) AsObject() Object   { return v.obj }

// AsFloat64 returns the value as a float64 regardless of whether it is an
// Int or a Float, for use in mixed arithmetic.
func (v Value) AsFloat64() float64 {
	if v.kind == KindInt {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// Truthy implements the single documented truthiness rule used consistently
// by if/while/and/or/not: only nil and false are falsy. 0, 0.0 and "" are
// truthy, unlike some scripting languages -- chosen so that arithmetic
// results can be used directly as loop sentinels without a surprising
// special case for zero.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

// TypeName returns the runtime type name used in diagnostics.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindObj:
		return v.obj.Type()
	}
	return "invalid"
}

func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindInt:
		return fmt.Sprintf("%d", v.AsInt())
	case KindFloat:
		return formatFloat(v.AsFloat())
	case KindObj:
		return v.obj.String()
	}
	return "<invalid value>"
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := fmt.Sprintf("%g", f)
	// ensure float-looking output even for whole numbers, to keep "1.0" from
	// printing as "1" and being confused with an int in program output.
	hasDotOrExp := false
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' || s[i] == 'E' {
			hasDotOrExp = true
			break
		}
	}
	if !hasDotOrExp {
		s += ".0"
	}
	return s
}

// Equals implements content equality: numeric equality with int/float
// promotion, interned-pointer identity for strings (trivially true for two
// references to the same interned string), and plain identity for every
// other object kind.
func Equals(a, b Value) bool {
	if a.kind == KindObj && b.kind == KindObj {
		if as, ok := a.obj.(*String); ok {
			if bs, ok := b.obj.(*String); ok {
				return as == bs // interning guarantees pointer identity
			}
			return false
		}
		return a.obj == b.obj
	}
	if a.IsNumber() && b.IsNumber() {
		if a.kind == KindInt && b.kind == KindInt {
			return a.AsInt() == b.AsInt()
		}
		return a.AsFloat64() == b.AsFloat64()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.AsBool() == b.AsBool()
	}
	return false
}
