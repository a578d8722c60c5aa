package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strand-lang/strand/lang/builtins"
	"github.com/strand-lang/strand/lang/vm"
)

func runSource(t *testing.T, src string) string {
	t.Helper()
	var out bytes.Buffer
	v := vm.New(vm.Config{Stdout: &out})
	builtins.Register(v)

	fn, diags := v.Compile([]byte(src), t.Name())
	require.Empty(t, diags, "compile diagnostics: %v", diags)

	_, rerr := v.Run(fn)
	require.Nil(t, rerr, "runtime error: %v", rerr)
	return out.String()
}

func TestArithmeticPrecedence(t *testing.T) {
	assert.Equal(t, "7\n", runSource(t, `print(1 + 2 * 3)`))
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `
fn f(n)
  if n <= 1 then return n end
  return f(n-1)+f(n-2)
end
print(f(10))
`
	assert.Equal(t, "55\n", runSource(t, src))
}

func TestArrayPushAndNegativeIndex(t *testing.T) {
	src := `
let a = [1,2,3]
push(a, 4)
print(a[-1])
`
	assert.Equal(t, "4\n", runSource(t, src))
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	src := `
fn make(x)
  fn g()
    return x
  end
  return g
end
let c = make(42)
print(c())
`
	assert.Equal(t, "42\n", runSource(t, src))
}

func TestDictIndexAssignment(t *testing.T) {
	src := `
let d = {"k": 1}
d["k"] = d["k"] + 1
print(d["k"])
`
	assert.Equal(t, "2\n", runSource(t, src))
}

func TestMatchWithGuard(t *testing.T) {
	src := `
fn describe(v)
  match v
  case 0 then return "zero"
  case n if n < 0 then return "neg"
  case _ then return "pos"
  end
end
print(describe(-3))
`
	assert.Equal(t, "neg\n", runSource(t, src))
}

func TestForRangeLoop(t *testing.T) {
	src := `
let total = 0
for i in 1 to 5 do
  total = total + i
end
print(total)
`
	assert.Equal(t, "15\n", runSource(t, src))
}

func TestForInArray(t *testing.T) {
	src := `
let total = 0
for v in [10, 20, 30] do
  total = total + v
end
print(total)
`
	assert.Equal(t, "60\n", runSource(t, src))
}

func TestDivisionAlwaysFloat(t *testing.T) {
	assert.Equal(t, "3.5\n", runSource(t, `print(7 / 2)`))
}

func TestDivisionByZeroRaisesTypedError(t *testing.T) {
	v := vm.New(vm.Config{Stdout: &bytes.Buffer{}})
	builtins.Register(v)
	fn, diags := v.Compile([]byte(`print(1 / 0)`), t.Name())
	require.Empty(t, diags)
	_, rerr := v.Run(fn)
	require.NotNil(t, rerr)
	assert.Equal(t, vm.DivisionByZero, rerr.Kind)
}

func TestUndefinedGlobalRaisesTypedError(t *testing.T) {
	v := vm.New(vm.Config{Stdout: &bytes.Buffer{}})
	builtins.Register(v)
	fn, diags := v.Compile([]byte(`print(undefined_name)`), t.Name())
	require.Empty(t, diags)
	_, rerr := v.Run(fn)
	require.NotNil(t, rerr)
	assert.Equal(t, vm.UndefinedName, rerr.Kind)
}

func TestKeyMissingOnSubscriptButNilOnMember(t *testing.T) {
	assert.Equal(t, "nil\n", runSource(t, `let d = {} print(d.missing)`))

	v := vm.New(vm.Config{Stdout: &bytes.Buffer{}})
	builtins.Register(v)
	fn, diags := v.Compile([]byte(`let d = {} print(d["missing"])`), t.Name())
	require.Empty(t, diags)
	_, rerr := v.Run(fn)
	require.NotNil(t, rerr)
	assert.Equal(t, vm.KeyMissing, rerr.Kind)
}
