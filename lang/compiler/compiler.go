package compiler

import (
	"github.com/strand-lang/strand/lang/gc"
	"github.com/strand-lang/strand/lang/scanner"
	"github.com/strand-lang/strand/lang/token"
	"github.com/strand-lang/strand/lang/value"
)

const (
	maxLocals   = 1 << 16
	maxUpvalues = 1 << 16
	maxConsts   = 1 << 16
)

type local struct {
	name       string
	depth      int // -1 while its initializer is still being compiled
	isConst    bool
	isCaptured bool
}

// funcState holds the per-function compilation state: its in-progress
// chunk, its locals (including parameters) and its upvalue descriptors.
// funcState forms a linked stack mirroring the lexical nesting of fn
// declarations/expressions, exactly like the call-frame stack it compiles
// for.
type funcState struct {
	enclosing *funcState

	name     string
	chunk    *chunk
	locals   []local
	upvalues []value.UpvalueDesc
	// upvalConst[i] mirrors upvalues[i]: whether the captured binding was
	// declared const, so an assignment reached through a closure is rejected
	// at compile time the same as a direct local/global assignment would be.
	upvalConst []bool
	// scopeDepth 0 is the outermost scope of this function; every nested
	// block raises the depth. Declarations become globals only at depth 0
	// of the top-level script (the funcState with no enclosing function);
	// a function body starts its own funcState at depth 0, and its
	// declarations are always stack locals, regardless of whether the
	// function itself happens to be declared at depth 0.
	scopeDepth int
	maxStack   int
	curStack   int
}

func newFuncState(enclosing *funcState, name string) *funcState {
	return &funcState{enclosing: enclosing, name: name, chunk: newChunk()}
}

// track records sp's net effect on the operand stack so the function's
// final MaxStack can be sized once for the whole call frame.
func (fs *funcState) track(delta int) {
	fs.curStack += delta
	if fs.curStack > fs.maxStack {
		fs.maxStack = fs.curStack
	}
}

// Compiler drives a single-pass Pratt parse directly into bytecode: there
// is no separate AST or resolver pass. Scope resolution (locals, upvalues,
// globals) happens inline as each expression and statement is parsed,
// using the same technique Lua/clox-style compilers use to avoid building
// and then re-walking a tree.
type Compiler struct {
	sc   scanner.Scanner
	file *token.File

	cur, prev       token.Token
	curLit, prevLit token.LiteralValue

	errs      scanner.ErrorList
	diags     []Diagnostic
	panicMode bool

	gc      *gc.Collector
	strings *value.Table

	// constGlobals records every name declared `const` at module scope, since
	// the globals table itself (runtime-side) carries no const/mutable
	// distinction -- only the compiler enforces it, at the point a name
	// resolves to a global lvalue.
	constGlobals map[string]bool

	fs *funcState
}

// Compile compiles source into a top-level script Function. name is used
// both as the file name in diagnostics and as the resulting function's
// debug name. On failure (len(diags) > 0), the returned Function must not
// be executed.
func Compile(source []byte, name string, collector *gc.Collector, strings *value.Table) (*value.Function, []Diagnostic) {
	c := &Compiler{
		gc:           collector,
		strings:      strings,
		constGlobals: make(map[string]bool),
		fs:           newFuncState(nil, name),
	}
	c.file = token.NewFile(name, len(source))
	c.sc.Init(c.file, source, func(pos token.Position, msg string) {
		c.diags = append(c.diags, Diagnostic{Line: pos.Line, Col: pos.Col, Kind: UnexpectedToken, Message: msg})
	})

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "expected end of file")

	fn := c.finishFunction(0)
	if len(c.diags) > 0 {
		return nil, c.diags
	}
	return fn, nil
}

// finishFunction emits the implicit trailing return and materializes the
// finished value.Function from the current funcState.
func (c *Compiler) finishFunction(arity int) *value.Function {
	fs := c.fs
	fs.chunk.emitOp(NIL, c.line())
	fs.chunk.emitOp(HALTOrReturn(fs.enclosing == nil), c.line())

	fn := value.NewFunction(c.gc, fs.name)
	fn.Arity = arity
	fn.Code = fs.chunk.code
	fn.Lines = fs.chunk.lines
	fn.Consts = fs.chunk.consts
	fn.Upvalues = fs.upvalues
	fn.MaxStack = fs.maxStack + 4 // headroom for transient DUPs
	fn.NumLocal = len(fs.locals)
	return fn
}

// HALTOrReturn picks the terminator opcode for a function body: the
// top-level script HALTs the VM, nested functions RETURN to their caller.
func HALTOrReturn(isTopLevel bool) Opcode {
	if isTopLevel {
		return HALT
	}
	return RETURN
}

func (c *Compiler) line() int { return c.prevLit.Pos.Line() }

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.prev, c.prevLit = c.cur, c.curLit
	for {
		c.cur, c.curLit = c.sc.Scan()
		if c.cur != token.ILLEGAL {
			break
		}
	}
}

func (c *Compiler) check(tok token.Token) bool { return c.cur == tok }

func (c *Compiler) match(tok token.Token) bool {
	if !c.check(tok) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tok token.Token, msg string) {
	if c.check(tok) {
		c.advance()
		return
	}
	c.errorAtCurrent(UnexpectedToken, msg+"; got "+c.cur.String())
}

func (c *Compiler) errorAtCurrent(kind DiagnosticKind, msg string) {
	c.errorAt(c.curLit.Pos, kind, msg)
}

func (c *Compiler) errorAtPrev(kind DiagnosticKind, msg string) {
	c.errorAt(c.prevLit.Pos, kind, msg)
}

func (c *Compiler) errorAt(pos token.Pos, kind DiagnosticKind, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	l, col := pos.LineCol()
	c.diags = append(c.diags, Diagnostic{Line: l, Col: col, Kind: kind, Message: msg})
}

// synchronize resynchronizes the token stream to the next statement
// boundary (a keyword that starts a declaration or statement, or EOF)
// after a syntax error, so the compiler can keep parsing and surface more
// than one diagnostic per compile.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(token.EOF) {
		switch c.cur {
		case token.LET, token.CONST, token.FN, token.IF, token.WHILE, token.FOR,
			token.RETURN, token.MATCH, token.END:
			return
		}
		c.advance()
	}
}

// --- scopes, locals, upvalues ------------------------------------------

func (c *Compiler) beginScope() { c.fs.scopeDepth++ }

// endScope pops every local declared in the scope being exited. Captured
// locals are closed (their upvalue detaches from the stack slot and keeps
// its own copy) instead of being merely popped.
func (c *Compiler) endScope() {
	fs := c.fs
	fs.scopeDepth--
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		last := fs.locals[len(fs.locals)-1]
		slot := len(fs.locals) - 1
		if last.isCaptured {
			fs.chunk.emitOpU16(CLOSE_UPVAL, uint16(slot), c.line())
		} else {
			fs.chunk.emitOp(POP, c.line())
		}
		fs.track(-1)
		fs.locals = fs.locals[:len(fs.locals)-1]
	}
}

// isGlobalScope reports whether declarations made right now become globals
// (only true at the outermost scope of the top-level script).
func (c *Compiler) isGlobalScope() bool {
	return c.fs.enclosing == nil && c.fs.scopeDepth == 0
}

func (c *Compiler) declareLocal(name string, isConst bool) int {
	fs := c.fs
	if len(fs.locals) >= maxLocals {
		c.errorAtPrev(TooManyLocals, "too many local variables in function")
		return -1
	}
	fs.locals = append(fs.locals, local{name: name, depth: -1, isConst: isConst})
	return len(fs.locals) - 1
}

func (c *Compiler) defineLocal(slot int) {
	if slot < 0 {
		return
	}
	c.fs.locals[slot].depth = c.fs.scopeDepth
}

// resolveLocal searches fs's locals from innermost to outermost declaration
// order, returning the stack slot or -1 if name is not a local of fs.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name && fs.locals[i].depth != -1 {
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively resolves name as a free variable captured
// from an enclosing function, creating the necessary upvalue descriptors
// in every function between fs and the one that owns the local, and
// returns fs's own upvalue index and whether the captured binding is
// const, or (-1, false) if name is not found in any enclosing scope
// (meaning it must be a global).
func resolveUpvalue(fs *funcState, name string) (int, bool) {
	if fs.enclosing == nil {
		return -1, false
	}
	if slot := resolveLocal(fs.enclosing, name); slot != -1 {
		fs.enclosing.locals[slot].isCaptured = true
		isConst := fs.enclosing.locals[slot].isConst
		return addUpvalue(fs, true, slot, isConst), isConst
	}
	if idx, isConst := resolveUpvalue(fs.enclosing, name); idx != -1 {
		return addUpvalue(fs, false, idx, isConst), isConst
	}
	return -1, false
}

func addUpvalue(fs *funcState, isLocal bool, index int, isConst bool) int {
	for i, uv := range fs.upvalues {
		if uv.IsLocal == isLocal && uv.Index == index {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, value.UpvalueDesc{IsLocal: isLocal, Index: index})
	fs.upvalConst = append(fs.upvalConst, isConst)
	return len(fs.upvalues) - 1
}
