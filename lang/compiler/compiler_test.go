package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strand-lang/strand/lang/compiler"
	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/value"
)

func compile(t *testing.T, src string) *value.Function {
	t.Helper()
	collector := gc.New(gc.Config{})
	strings := value.NewTable(collector)
	fn, diags := compiler.Compile([]byte(src), t.Name(), collector, strings)
	require.Empty(t, diags, "compile diagnostics: %v", diags)
	return fn
}

func TestCompileArithmeticEmitsExpectedOpcodes(t *testing.T) {
	fn := compile(t, `let x = 1 + 2 * 3`)
	listing := compiler.Disassemble(fn)
	assert.Contains(t, listing, "mul")
	assert.Contains(t, listing, "add")
	assert.Contains(t, listing, "def_global")
}

func TestCompileFunctionDeclarationEmitsClosure(t *testing.T) {
	fn := compile(t, `
fn add(a, b)
  return a + b
end
`)
	listing := compiler.Disassemble(fn)
	assert.Contains(t, listing, "closure")
	assert.Contains(t, listing, "function add:")
}

func TestCompileIfEmitsConditionalJumps(t *testing.T) {
	fn := compile(t, `
if 1 < 2 then
  let y = 1
else
  let y = 2
end
`)
	listing := compiler.Disassemble(fn)
	assert.Contains(t, listing, "jump_if_false")
	assert.Contains(t, listing, "jump ")
}

func TestCompileWhileEmitsLoopBack(t *testing.T) {
	fn := compile(t, `
let i = 0
while i < 3 do
  i = i + 1
end
`)
	listing := compiler.Disassemble(fn)
	assert.Contains(t, listing, "loop")
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	fn := compile(t, `
fn make(x)
  fn g()
    return x
  end
  return g
end
`)
	listing := compiler.Disassemble(fn)
	assert.Contains(t, listing, "local:")
	assert.True(t, strings.Contains(listing, "get_upval"))
}

func TestCompileDiagnosticOnInvalidAssignTarget(t *testing.T) {
	collector := gc.New(gc.Config{})
	strTable := value.NewTable(collector)
	_, diags := compiler.Compile([]byte(`1 + 1 = 2`), t.Name(), collector, strTable)
	require.NotEmpty(t, diags)
	assert.Equal(t, compiler.InvalidAssignTarget, diags[0].Kind)
}

func TestCompileDiagnosticOnConstReassignment(t *testing.T) {
	collector := gc.New(gc.Config{})
	strTable := value.NewTable(collector)
	_, diags := compiler.Compile([]byte(`const x = 1
x = 2`), t.Name(), collector, strTable)
	require.NotEmpty(t, diags)
	assert.Equal(t, compiler.ConstReassignment, diags[0].Kind)
}

func TestCompileDiagnosticOnConstReassignmentThroughClosure(t *testing.T) {
	collector := gc.New(gc.Config{})
	strTable := value.NewTable(collector)
	_, diags := compiler.Compile([]byte(`
fn outer()
  const x = 1
  fn inner()
    x = 2
  end
  return inner
end
`), t.Name(), collector, strTable)
	require.NotEmpty(t, diags)
	assert.Equal(t, compiler.ConstReassignment, diags[0].Kind)
}
