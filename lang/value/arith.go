package value

import "fmt"

// OpError reports that an operator was applied to operand types it does not
// support. The VM wraps this with a source line and call trace to produce a
// type_mismatch runtime error.
type OpError struct {
	Op  string
	Msg string
}

func (e *OpError) Error() string { return e.Msg }

func typeErr(op string, a, b Value) *OpError {
	return &OpError{Op: op, Msg: fmt.Sprintf("unsupported operand type(s) for %s: %q and %q", op, a.TypeName(), b.TypeName())}
}

// Add implements "+": int+int -> int (wrapping), mixed int/float or
// float+float -> float, string+string -> concatenated interned string.
func Add(strs *Table, a, b Value) (Value, error) {
	if a.kind == KindObj && b.kind == KindObj {
		as, aok := a.obj.(*String)
		bs, bok := b.obj.(*String)
		if aok && bok {
			return Obj(strs.Concat(as, bs)), nil
		}
	}
	if !a.IsNumber() || !b.IsNumber() {
		return Nil, typeErr("+", a, b)
	}
	if a.kind == KindInt && b.kind == KindInt {
		return Int(a.AsInt() + b.AsInt()), nil
	}
	return Float(a.AsFloat64() + b.AsFloat64()), nil
}

func numericBinOp(name string, a, b Value, ints func(x, y int64) (int64, error), floats func(x, y float64) float64) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return Nil, typeErr(name, a, b)
	}
	if a.kind == KindInt && b.kind == KindInt {
		r, err := ints(a.AsInt(), b.AsInt())
		if err != nil {
			return Nil, err
		}
		return Int(r), nil
	}
	return Float(floats(a.AsFloat64(), b.AsFloat64())), nil
}

func Sub(a, b Value) (Value, error) {
	return numericBinOp("-", a, b,
		func(x, y int64) (int64, error) { return x - y, nil },
		func(x, y float64) float64 { return x - y })
}

func Mul(a, b Value) (Value, error) {
	return numericBinOp("*", a, b,
		func(x, y int64) (int64, error) { return x * y, nil },
		func(x, y float64) float64 { return x * y })
}

// Div always yields a float, whether or not both operands are ints, so that
// 7/2 and 7.0/2.0 behave identically and division never truncates silently.
func Div(a, b Value) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return Nil, typeErr("/", a, b)
	}
	divisor := b.AsFloat64()
	if divisor == 0 {
		return Nil, ErrDivByZero
	}
	return Float(a.AsFloat64() / divisor), nil
}

// ErrDivByZero is the sentinel returned by Div and Mod on a zero divisor,
// so callers can distinguish it from an ordinary type mismatch via
// errors.Is rather than matching on its message text.
var ErrDivByZero = &OpError{Op: "/", Msg: "division by zero"}

func Mod(a, b Value) (Value, error) {
	if a.IsNumber() && b.IsNumber() && b.AsFloat64() == 0 {
		return Nil, ErrDivByZero
	}
	return numericBinOp("%", a, b,
		func(x, y int64) (int64, error) {
			if y == 0 {
				return 0, ErrDivByZero
			}
			return x % y, nil
		},
		func(x, y float64) float64 {
			r := x - y*float64(int64(x/y))
			return r
		})
}

func Neg(a Value) (Value, error) {
	switch a.kind {
	case KindInt:
		return Int(-a.AsInt()), nil
	case KindFloat:
		return Float(-a.AsFloat()), nil
	}
	return Nil, &OpError{Op: "-", Msg: fmt.Sprintf("unsupported operand type for unary -: %q", a.TypeName())}
}

// Compare implements the ordering used by <, <=, >, >=: numeric values
// compare numerically (with promotion), strings compare lexically by
// content, and any other pairing is a type error -- non-numeric,
// non-string values are not ordered.
func Compare(a, b Value) (int, error) {
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if as, ok := a.obj.(*String); a.kind == KindObj && ok {
		if bs, ok := b.obj.(*String); b.kind == KindObj && ok {
			switch {
			case as.s < bs.s:
				return -1, nil
			case as.s > bs.s:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, &OpError{Op: "compare", Msg: fmt.Sprintf("cannot compare %q and %q", a.TypeName(), b.TypeName())}
}
