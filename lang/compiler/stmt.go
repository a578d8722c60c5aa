package compiler

import (
	"github.com/strand-lang/strand/lang/token"
	"github.com/strand-lang/strand/lang/value"
)

// declaration is the top of the per-statement recursive-descent chain: it
// recognizes `let`/`const`/`fn` declarations and otherwise falls through to
// statement. A syntax error anywhere below resynchronizes here so that one
// Compile call can surface more than one diagnostic.
func (c *Compiler) declaration() {
	switch c.cur {
	case token.LET:
		c.letDecl(false)
	case token.CONST:
		c.letDecl(true)
	case token.FN:
		c.fnDecl()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) letDecl(isConst bool) {
	c.advance() // 'let' or 'const'
	name := c.expectIdentText("expected variable name")
	c.consume(token.ASSIGN, "expected '=' in declaration")
	line := c.line()
	c.expression()
	if c.isGlobalScope() {
		if isConst {
			c.constGlobals[name] = true
		}
		nameConst := c.internNameConstant(name)
		c.fsChunk().emitOpU16(DEF_GLOBAL, nameConst, line)
		c.fs.track(-1)
		return
	}
	slot := c.declareLocal(name, isConst)
	c.defineLocal(slot)
}

// fnDecl compiles `fn name(params) body end`. The name is declared before
// the body is compiled so the function can call itself recursively.
func (c *Compiler) fnDecl() {
	c.advance() // 'fn'
	name := c.expectIdentText("expected function name")
	line := c.line()
	isGlobal := c.isGlobalScope()
	var nameConst uint16
	if isGlobal {
		nameConst = c.internNameConstant(name)
	} else {
		slot := c.declareLocal(name, false)
		c.defineLocal(slot)
	}
	c.compileFunctionBody(name, line)
	if isGlobal {
		c.fsChunk().emitOpU16(DEF_GLOBAL, nameConst, line)
		c.fs.track(-1)
	}
}

// compileFunctionBody parses `(params) body end` (the 'fn'/name, if any,
// having already been consumed) and emits a CLOSURE instruction into the
// enclosing chunk that leaves the new closure on top of the stack.
func (c *Compiler) compileFunctionBody(name string, line int) {
	c.consume(token.LPAREN, "expected '(' after function name")
	parent := c.fs
	fs := newFuncState(parent, name)
	c.fs = fs

	// Slot 0 of every called function is the callee (closure) value itself,
	// already sitting on the stack at base_slot when CALL transfers control;
	// parameters start at slot 1. Reserving it here keeps stack-slot
	// indexing consistent with the VM's CALL contract without emitting any
	// instruction for it.
	calleeSlot := c.declareLocal("", false)
	c.defineLocal(calleeSlot)
	fs.track(1)

	arity := 0
	if !c.check(token.RPAREN) {
		for {
			pname := c.expectIdentText("expected parameter name")
			slot := c.declareLocal(pname, false)
			c.defineLocal(slot)
			fs.track(1)
			arity++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expected ')' after parameters")

	for !c.check(token.END) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.END, "expected 'end' after function body")

	fn := c.finishFunction(arity)
	c.fs = parent

	constIdx := c.fsChunk().addConstant(value.Obj(fn))
	c.emitClosure(c.fsChunk(), constIdx, fn.Upvalues, line)
	c.fs.track(1)
}

func (c *Compiler) emitClosure(ch *chunk, constIdx uint16, upvalues []value.UpvalueDesc, line int) {
	ch.emitOp(CLOSURE, line)
	ch.emitU16(constIdx, line)
	ch.emitByte(byte(len(upvalues)), line)
	for _, uv := range upvalues {
		var isLocal byte
		if uv.IsLocal {
			isLocal = 1
		}
		ch.emitByte(isLocal, line)
		ch.emitU16(uint16(uv.Index), line)
	}
}

// functionExpr compiles an anonymous `fn(params) body end` expression.
func (c *Compiler) functionExpr() lvalue {
	line := c.line()
	c.advance() // 'fn'
	c.compileFunctionBody("", line)
	return lvalue{}
}

// statement compiles a non-declaration statement.
func (c *Compiler) statement() {
	switch c.cur {
	case token.IF:
		c.ifStmt()
	case token.WHILE:
		c.whileStmt()
	case token.FOR:
		c.forStmt()
	case token.RETURN:
		c.returnStmt()
	case token.MATCH:
		c.matchStmt()
	default:
		c.exprStmt()
	}
}

func (c *Compiler) exprStmt() {
	c.expression()
	line := c.line()
	c.fsChunk().emitOp(POP, line)
	c.fs.track(-1)
}

// startsExpression reports whether the current token can begin an
// expression, used to tell a bare `return` apart from `return expr`.
func (c *Compiler) startsExpression() bool {
	switch c.cur {
	case token.END, token.ELIF, token.ELSE, token.CASE, token.EOF:
		return false
	}
	return true
}

func (c *Compiler) returnStmt() {
	line := c.line()
	c.advance() // 'return'
	if c.fs.enclosing == nil {
		c.errorAtPrev(UnexpectedToken, "'return' outside a function")
	}
	if c.startsExpression() {
		c.expression()
	} else {
		c.fsChunk().emitOp(NIL, line)
		c.fs.track(1)
	}
	c.fsChunk().emitOp(RETURN, line)
	c.fs.track(-1)
}

// ifStmt compiles `if cond then body (elif cond then body)* (else body)? end`.
// JUMP_IF_FALSE already pops its operand, so no extra POP is needed around
// the condition the way short-circuit and/or needs one.
func (c *Compiler) ifStmt() {
	c.advance() // 'if'
	var endJumps []int
	for {
		c.expression()
		line := c.line()
		c.consume(token.THEN, "expected 'then' after condition")
		elseJump := c.fsChunk().emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)

		c.beginScope()
		for !c.check(token.ELIF) && !c.check(token.ELSE) && !c.check(token.END) {
			c.declaration()
		}
		c.endScope()

		jmp := c.fsChunk().emitOpU16(JUMP, 0, c.line())
		endJumps = append(endJumps, jmp)
		c.fsChunk().patchJumpHere(elseJump + 1)

		if c.match(token.ELIF) {
			continue
		}
		break
	}
	if c.match(token.ELSE) {
		c.beginScope()
		for !c.check(token.END) {
			c.declaration()
		}
		c.endScope()
	}
	c.consume(token.END, "expected 'end' after if statement")
	for _, j := range endJumps {
		c.fsChunk().patchJumpHere(j + 1)
	}
}

func (c *Compiler) whileStmt() {
	c.advance() // 'while'
	ch := c.fsChunk()
	loopStart := len(ch.code)
	c.expression()
	line := c.line()
	c.consume(token.DO, "expected 'do' after while condition")
	exitJump := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
	c.fs.track(-1)

	c.beginScope()
	for !c.check(token.END) {
		c.declaration()
	}
	c.endScope()
	c.consume(token.END, "expected 'end' after while body")

	ch.emitLoop(loopStart, c.line())
	ch.patchJumpHere(exitJump + 1)
}

// forStmt compiles both for-loop shapes: `for v in a to b do ... end`
// (inclusive integer range) and `for v in expr do ... end` (general
// iterable), distinguished by whether 'to' follows the first expression.
func (c *Compiler) forStmt() {
	c.advance() // 'for'
	varName := c.expectIdentText("expected loop variable name")
	c.consume(token.IN, "expected 'in' after for-loop variable")
	c.beginScope()
	c.expression()
	if c.match(token.TO) {
		c.forRange(varName)
	} else {
		c.forIn(varName)
	}
	c.consume(token.END, "expected 'end' after for body")
	c.endScope()
}

// forRange assumes the lower-bound expression has already been compiled and
// left on the stack; it becomes the loop variable's own stack slot.
func (c *Compiler) forRange(varName string) {
	slot := c.declareLocal(varName, false)
	c.defineLocal(slot)

	c.expression() // upper bound
	limitSlot := c.declareLocal("", false)
	c.defineLocal(limitSlot)

	c.consume(token.DO, "expected 'do' after range")
	ch := c.fsChunk()
	line := c.line()
	loopStart := len(ch.code)

	ch.emitOpU16(GET_LOCAL, uint16(slot), line)
	c.fs.track(1)
	ch.emitOpU16(GET_LOCAL, uint16(limitSlot), line)
	c.fs.track(1)
	ch.emitOp(LE, line)
	c.fs.track(-1)
	exitJump := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
	c.fs.track(-1)

	for !c.check(token.END) {
		c.declaration()
	}

	ch.emitOpU16(GET_LOCAL, uint16(slot), line)
	c.fs.track(1)
	ch.emitOpU8(INT_SMALL, 1, line)
	c.fs.track(1)
	ch.emitOp(ADD, line)
	c.fs.track(-1)
	ch.emitOpU16(SET_LOCAL, uint16(slot), line)
	c.fs.track(-1)
	ch.emitLoop(loopStart, line)
	ch.patchJumpHere(exitJump + 1)
}

// forIn assumes the iterable expression has already been compiled and left
// on the stack; it is consumed entirely by ITER_PUSH.
func (c *Compiler) forIn(varName string) {
	ch := c.fsChunk()
	line := c.line()
	ch.emitOp(ITER_PUSH, line)
	c.fs.track(-1)

	ch.emitOp(NIL, line) // reserve the loop variable's stack slot
	c.fs.track(1)
	slot := c.declareLocal(varName, false)
	c.defineLocal(slot)

	c.consume(token.DO, "expected 'do' after for-in iterable")
	loopStart := len(ch.code)
	exitJump := ch.emitOpU16(ITER_NEXT, 0, line)
	c.fs.track(1)
	ch.emitOpU16(SET_LOCAL, uint16(slot), line)
	c.fs.track(-1)

	for !c.check(token.END) {
		c.declaration()
	}
	ch.emitLoop(loopStart, line)
	ch.patchJumpHere(exitJump + 1)
}

// patBinding defers a pattern-bound name's local declaration until after its
// pattern (and every enclosing pattern) is known to have matched, so a
// binding is never declared on a code path the runtime might skip.
type patBinding struct {
	name string
	emit func(line int)
}

// patNode is a tiny, match-arm-local pattern tree. Parsing a pattern into
// this shape first (rather than interleaving parse and emit) lets an array
// pattern's element count be known before its ARRAY_LEN check is emitted.
type patNode struct {
	kind     string // wildcard, ident, int, float, string, bool, nil, array
	name     string
	intVal   int64
	floatVal float64
	strVal   string
	boolVal  bool
	elems    []patNode
}

func (c *Compiler) parsePatternNode() patNode {
	switch c.cur {
	case token.IDENT:
		name := c.curLit.String
		c.advance()
		if name == "_" {
			return patNode{kind: "wildcard"}
		}
		return patNode{kind: "ident", name: name}
	case token.INT:
		n := c.curLit.Int
		c.advance()
		return patNode{kind: "int", intVal: n}
	case token.FLOAT:
		f := c.curLit.Float
		c.advance()
		return patNode{kind: "float", floatVal: f}
	case token.MINUS:
		c.advance()
		if c.check(token.INT) {
			n := c.curLit.Int
			c.advance()
			return patNode{kind: "int", intVal: -n}
		}
		if c.check(token.FLOAT) {
			f := c.curLit.Float
			c.advance()
			return patNode{kind: "float", floatVal: -f}
		}
		c.errorAtCurrent(UnexpectedToken, "expected number after '-' in pattern")
		return patNode{kind: "wildcard"}
	case token.STRING:
		s := c.curLit.String
		c.advance()
		return patNode{kind: "string", strVal: s}
	case token.TRUE:
		c.advance()
		return patNode{kind: "bool", boolVal: true}
	case token.FALSE:
		c.advance()
		return patNode{kind: "bool", boolVal: false}
	case token.NIL:
		c.advance()
		return patNode{kind: "nil"}
	case token.LBRACK:
		c.advance()
		var elems []patNode
		if !c.check(token.RBRACK) {
			for {
				elems = append(elems, c.parsePatternNode())
				if !c.match(token.COMMA) {
					break
				}
			}
		}
		c.consume(token.RBRACK, "expected ']' after array pattern elements")
		return patNode{kind: "array", elems: elems}
	}
	c.errorAtCurrent(UnexpectedToken, "unexpected token in pattern")
	c.advance()
	return patNode{kind: "wildcard"}
}

// compilePatternNode emits code that tests emitSubject()'s value against
// node, appending a JUMP_IF_FALSE operand offset to fail for every test that
// can mismatch, and returns the names node binds (deferred: the caller only
// declares these as locals once every test has passed).
func (c *Compiler) compilePatternNode(node patNode, emitSubject func(line int), fail *[]int) []patBinding {
	line := c.line()
	ch := c.fsChunk()
	switch node.kind {
	case "wildcard":
		return nil
	case "ident":
		return []patBinding{{name: node.name, emit: emitSubject}}
	case "int":
		emitSubject(line)
		c.emitInt(node.intVal, line)
		ch.emitOp(EQ, line)
		c.fs.track(-1)
		j := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		*fail = append(*fail, j)
		return nil
	case "float":
		emitSubject(line)
		idx := ch.addConstant(value.Float(node.floatVal))
		ch.emitOpU16(CONST, idx, line)
		c.fs.track(1)
		ch.emitOp(EQ, line)
		c.fs.track(-1)
		j := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		*fail = append(*fail, j)
		return nil
	case "string":
		emitSubject(line)
		idx := c.internNameConstant(node.strVal)
		ch.emitOpU16(CONST, idx, line)
		c.fs.track(1)
		ch.emitOp(EQ, line)
		c.fs.track(-1)
		j := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		*fail = append(*fail, j)
		return nil
	case "bool":
		emitSubject(line)
		if node.boolVal {
			ch.emitOp(TRUE, line)
		} else {
			ch.emitOp(FALSE, line)
		}
		c.fs.track(1)
		ch.emitOp(EQ, line)
		c.fs.track(-1)
		j := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		*fail = append(*fail, j)
		return nil
	case "nil":
		emitSubject(line)
		ch.emitOp(NIL, line)
		c.fs.track(1)
		ch.emitOp(EQ, line)
		c.fs.track(-1)
		j := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		*fail = append(*fail, j)
		return nil
	case "array":
		emitSubject(line)
		ch.emitOp(ARRAY_LEN, line)
		c.fs.track(1)
		c.emitInt(int64(len(node.elems)), line)
		ch.emitOp(EQ, line)
		c.fs.track(-1)
		j := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		*fail = append(*fail, j)
		ch.emitOp(POP, line) // discard the array ARRAY_LEN kept beneath its length
		c.fs.track(-1)

		var bindings []patBinding
		for i, elem := range node.elems {
			idx := i
			elemSubject := func(l int) {
				emitSubject(l)
				c.emitInt(int64(idx), l)
				c.fsChunk().emitOp(INDEX_GET, l)
				c.fs.track(-1)
			}
			bindings = append(bindings, c.compilePatternNode(elem, elemSubject, fail)...)
		}
		return bindings
	}
	return nil
}

// matchStmt compiles `match expr case pattern (if guard)? then body ... end`.
// Cases are tried top to bottom; the first whose pattern (and guard, if any)
// matches runs its body and jumps past the rest.
func (c *Compiler) matchStmt() {
	c.advance() // 'match'
	c.beginScope()
	c.expression()
	subjSlot := c.declareLocal("", false)
	c.defineLocal(subjSlot)

	var endJumps []int
	for c.match(token.CASE) {
		c.matchCase(subjSlot, &endJumps)
	}
	c.consume(token.END, "expected 'end' after match")
	for _, j := range endJumps {
		c.fsChunk().patchJumpHere(j + 1)
	}
	c.endScope()
}

func (c *Compiler) matchCase(subjSlot int, endJumps *[]int) {
	node := c.parsePatternNode()

	var failJumps []int
	emitSubject := func(line int) {
		c.fsChunk().emitOpU16(GET_LOCAL, uint16(subjSlot), line)
		c.fs.track(1)
	}
	bindings := c.compilePatternNode(node, emitSubject, &failJumps)

	c.beginScope()
	line := c.line()
	for _, b := range bindings {
		b.emit(line)
		slot := c.declareLocal(b.name, false)
		c.defineLocal(slot)
	}

	if c.match(token.IF) {
		c.expression()
		guardLine := c.line()
		gj := c.fsChunk().emitOpU16(JUMP_IF_FALSE, 0, guardLine)
		c.fs.track(-1)
		failJumps = append(failJumps, gj)
	}

	c.consume(token.THEN, "expected 'then' after match pattern")
	for !c.check(token.CASE) && !c.check(token.END) {
		c.declaration()
	}
	c.endScope()

	jmp := c.fsChunk().emitOpU16(JUMP, 0, c.line())
	*endJumps = append(*endJumps, jmp)
	for _, j := range failJumps {
		c.fsChunk().patchJumpHere(j + 1)
	}
}
