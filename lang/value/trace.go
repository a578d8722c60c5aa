package value

import "github.com/strand-lang/strand/lang/gc"

// markValue marks v's underlying object, if any. Non-object values (nil,
// bool, int, float) have nothing to trace.
func markValue(v Value, mark func(gc.Traceable)) {
	if v.kind == KindObj && v.obj != nil {
		mark(v.obj)
	}
}
