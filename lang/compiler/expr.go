package compiler

import (
	"github.com/strand-lang/strand/lang/token"
	"github.com/strand-lang/strand/lang/value"
)

// precedence levels, low to high: assignment, or, and, equality,
// comparison, range (..), additive, multiplicative, unary, call/index/
// member/primary.
type precedence int

const (
	precNone precedence = iota
	precOr
	precAnd
	precEquality
	precComparison
	precRange
	precTerm
	precFactor
	precUnary
	precCall
)

// lvKind classifies what kind of storage location an expression denotes,
// if any. Only identifiers, index expressions and member expressions are
// assignable; every other expression evaluates to lvNone.
type lvKind int

const (
	lvNone lvKind = iota
	lvLocal
	lvUpval
	lvGlobal
	lvIndex
	lvMember
)

// lvalue describes a parsed expression that may be the target of an
// assignment. For lvLocal/lvUpval/lvGlobal the value has not been pushed
// yet (emitGet/emitSet push exactly what's needed). For lvIndex the
// array/dict and index value are already on the stack; for lvMember the
// object is already on the stack and nameConst is known. Every other
// expression shape (literals, calls, binary/unary results, ...) carries
// lvNone with its value already pushed.
type lvalue struct {
	kind      lvKind
	slot      int    // local slot or upvalue index
	nameConst uint16 // interned global/member name constant index
	isConst   bool   // true if this binds to a `const` local/global
	line      int
}

func (c *Compiler) fsChunk() *chunk { return c.fs.chunk }

// expression parses a full expression, including a possible trailing
// assignment, and leaves exactly one value on the stack.
func (c *Compiler) expression() { c.assignment() }

// assignment implements right-associative assignment: it parses everything
// above assignment precedence as a potential lvalue, and if an '=' follows,
// recursively parses the right-hand side, emits the store, and leaves the
// stored value on the stack (so assignment is itself a usable expression).
func (c *Compiler) assignment() {
	lv := c.logicalOr()
	if c.match(token.ASSIGN) {
		line := c.line()
		if lv.kind == lvNone {
			c.errorAtPrev(InvalidAssignTarget, "invalid assignment target")
		}
		if lv.isConst {
			c.errorAtPrev(ConstReassignment, "cannot assign to a const binding")
		}
		c.assignment()
		c.fsChunk().emitOp(DUP, line)
		c.fs.track(1)
		c.emitSet(lv)
		return
	}
	c.emitGet(lv)
}

// emitGet pushes lv's current value if it hasn't been pushed already.
func (c *Compiler) emitGet(lv lvalue) {
	ch := c.fsChunk()
	switch lv.kind {
	case lvLocal:
		ch.emitOpU16(GET_LOCAL, uint16(lv.slot), lv.line)
		c.fs.track(1)
	case lvUpval:
		ch.emitOpU16(GET_UPVAL, uint16(lv.slot), lv.line)
		c.fs.track(1)
	case lvGlobal:
		ch.emitOpU16(GET_GLOBAL, lv.nameConst, lv.line)
		c.fs.track(1)
	case lvIndex:
		ch.emitOp(INDEX_GET, lv.line)
		c.fs.track(-1)
	case lvMember:
		ch.emitOpU16(MEMBER_GET, lv.nameConst, lv.line)
		// object on stack is replaced by the field value: net 0
	}
}

// emitSet assumes the new value has just been pushed (and DUPed by the
// caller) and emits the matching store, consuming the operands each store
// opcode expects.
func (c *Compiler) emitSet(lv lvalue) {
	ch := c.fsChunk()
	switch lv.kind {
	case lvLocal:
		ch.emitOpU16(SET_LOCAL, uint16(lv.slot), lv.line)
		c.fs.track(-1)
	case lvUpval:
		ch.emitOpU16(SET_UPVAL, uint16(lv.slot), lv.line)
		c.fs.track(-1)
	case lvGlobal:
		ch.emitOpU16(SET_GLOBAL, lv.nameConst, lv.line)
		c.fs.track(-1)
	case lvIndex:
		ch.emitOp(INDEX_SET, lv.line)
		c.fs.track(-3)
	case lvMember:
		ch.emitOpU16(MEMBER_SET, lv.nameConst, lv.line)
		c.fs.track(-2)
	}
}

// logicalOr and logicalAnd compile the short-circuit `or`/`and` forms
// directly to jumps, never to a combined boolean operand.
func (c *Compiler) logicalOr() lvalue {
	lv := c.logicalAnd()
	for c.check(token.OR) {
		c.emitGet(lv)
		line := c.line()
		c.advance()
		ch := c.fsChunk()
		ch.emitOp(DUP, line)
		c.fs.track(1)
		falseJump := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		trueJump := ch.emitOpU16(JUMP, 0, line)
		ch.patchJumpHere(falseJump + 1)
		ch.emitOp(POP, line)
		c.fs.track(-1)
		rhs := c.logicalAnd()
		c.emitGet(rhs)
		ch.patchJumpHere(trueJump + 1)
		lv = lvalue{}
	}
	return lv
}

func (c *Compiler) logicalAnd() lvalue {
	lv := c.equality()
	for c.check(token.AND) {
		c.emitGet(lv)
		line := c.line()
		c.advance()
		ch := c.fsChunk()
		ch.emitOp(DUP, line)
		c.fs.track(1)
		falseJump := ch.emitOpU16(JUMP_IF_FALSE, 0, line)
		c.fs.track(-1)
		ch.emitOp(POP, line)
		c.fs.track(-1)
		rhs := c.equality()
		c.emitGet(rhs)
		ch.patchJumpHere(falseJump + 1)
		lv = lvalue{}
	}
	return lv
}

func (c *Compiler) equality() lvalue {
	lv := c.comparison()
	for c.check(token.EQ) || c.check(token.NEQ) {
		c.emitGet(lv)
		op := c.cur
		line := c.line()
		c.advance()
		rhs := c.comparison()
		c.emitGet(rhs)
		if op == token.EQ {
			c.fsChunk().emitOp(EQ, line)
		} else {
			c.fsChunk().emitOp(NEQ, line)
		}
		c.fs.track(-1)
		lv = lvalue{}
	}
	return lv
}

func (c *Compiler) comparison() lvalue {
	lv := c.rangeExpr()
	for c.check(token.LT) || c.check(token.LE) || c.check(token.GT) || c.check(token.GE) {
		c.emitGet(lv)
		op := c.cur
		line := c.line()
		c.advance()
		rhs := c.rangeExpr()
		c.emitGet(rhs)
		switch op {
		case token.LT:
			c.fsChunk().emitOp(LT, line)
		case token.LE:
			c.fsChunk().emitOp(LE, line)
		case token.GT:
			c.fsChunk().emitOp(GT, line)
		case token.GE:
			c.fsChunk().emitOp(GE, line)
		}
		c.fs.track(-1)
		lv = lvalue{}
	}
	return lv
}

// rangeExpr compiles the ".." operator into a materialized inclusive
// integer-range array (RANGE pops lo, hi and pushes a new array), so that
// `for v in a..b do` and `let xs = a..b` share the same runtime
// representation as any other iterable array.
func (c *Compiler) rangeExpr() lvalue {
	lv := c.term()
	if c.check(token.DOTDOT) {
		c.emitGet(lv)
		line := c.line()
		c.advance()
		rhs := c.term()
		c.emitGet(rhs)
		c.fsChunk().emitOp(RANGE, line)
		c.fs.track(-1)
		lv = lvalue{}
	}
	return lv
}

func (c *Compiler) term() lvalue {
	lv := c.factor()
	for c.check(token.PLUS) || c.check(token.MINUS) {
		c.emitGet(lv)
		op := c.cur
		line := c.line()
		c.advance()
		rhs := c.factor()
		c.emitGet(rhs)
		if op == token.PLUS {
			c.fsChunk().emitOp(ADD, line)
		} else {
			c.fsChunk().emitOp(SUB, line)
		}
		c.fs.track(-1)
		lv = lvalue{}
	}
	return lv
}

func (c *Compiler) factor() lvalue {
	lv := c.unary()
	for c.check(token.STAR) || c.check(token.SLASH) || c.check(token.PERCENT) {
		c.emitGet(lv)
		op := c.cur
		line := c.line()
		c.advance()
		rhs := c.unary()
		c.emitGet(rhs)
		switch op {
		case token.STAR:
			c.fsChunk().emitOp(MUL, line)
		case token.SLASH:
			c.fsChunk().emitOp(DIV, line)
		case token.PERCENT:
			c.fsChunk().emitOp(MOD, line)
		}
		c.fs.track(-1)
		lv = lvalue{}
	}
	return lv
}

func (c *Compiler) unary() lvalue {
	if c.check(token.MINUS) || c.check(token.NOT) {
		op := c.cur
		line := c.line()
		c.advance()
		operand := c.unary()
		c.emitGet(operand)
		if op == token.MINUS {
			c.fsChunk().emitOp(NEG, line)
		} else {
			c.fsChunk().emitOp(NOT, line)
		}
		return lvalue{}
	}
	return c.callOrPostfix()
}

// callOrPostfix parses a primary atom followed by any chain of call,
// index, and member suffixes: f(x)(y), a[0][1], a.b.c, and combinations
// thereof. Only the trailing-most suffix (or the bare atom, if there are no
// suffixes) is left unresolved as a deferred lvalue; every earlier link in
// the chain is fully evaluated immediately since it is only ever used as a
// value, never as an assignment target.
func (c *Compiler) callOrPostfix() lvalue {
	lv := c.primaryAtom()
	for {
		switch {
		case c.check(token.LPAREN):
			c.emitGet(lv)
			line := c.line()
			c.advance()
			argc := c.argumentList(token.RPAREN)
			c.consume(token.RPAREN, "expected ')' after arguments")
			c.fsChunk().emitOpU8(CALL, byte(argc), line)
			c.fs.track(-argc) // callee + args replaced by single result: -(argc+1)+1
			lv = lvalue{}

		case c.check(token.LBRACK):
			c.emitGet(lv)
			c.advance()
			c.expression()
			line := c.line()
			c.consume(token.RBRACK, "expected ']' after index")
			lv = lvalue{kind: lvIndex, line: line}

		case c.check(token.DOT):
			c.emitGet(lv)
			c.advance()
			name := c.expectIdentText("expected field name after '.'")
			line := c.line()
			nameConst := c.internNameConstant(name)
			lv = lvalue{kind: lvMember, nameConst: nameConst, line: line}

		default:
			return lv
		}
	}
}

// argumentList compiles a comma-separated expression list, left to right,
// until end is seen, returning the argument count.
func (c *Compiler) argumentList(end token.Token) int {
	argc := 0
	if c.check(end) {
		return 0
	}
	for {
		c.expression()
		c.fs.track(1)
		argc++
		if !c.match(token.COMMA) {
			break
		}
	}
	return argc
}

func (c *Compiler) expectIdentText(msg string) string {
	if !c.check(token.IDENT) {
		c.errorAtCurrent(UnexpectedToken, msg)
		return ""
	}
	name := c.curLit.String
	c.advance()
	return name
}

// internNameConstant adds name as an interned-string constant, for use as
// the operand of GET_GLOBAL/SET_GLOBAL/DEF_GLOBAL/MEMBER_GET/MEMBER_SET.
func (c *Compiler) internNameConstant(name string) uint16 {
	s := c.strings.Intern(name)
	return c.fsChunk().addConstant(value.Obj(s))
}

func (c *Compiler) primaryAtom() lvalue {
	line := c.line()
	switch c.cur {
	case token.INT:
		n := c.curLit.Int
		c.advance()
		c.emitInt(n, line)
		return lvalue{}
	case token.FLOAT:
		f := c.curLit.Float
		c.advance()
		idx := c.fsChunk().addConstant(value.Float(f))
		c.fsChunk().emitOpU16(CONST, idx, line)
		c.fs.track(1)
		return lvalue{}
	case token.STRING:
		s := c.curLit.String
		c.advance()
		idx := c.internNameConstant(s)
		c.fsChunk().emitOpU16(CONST, idx, line)
		c.fs.track(1)
		return lvalue{}
	case token.TRUE:
		c.advance()
		c.fsChunk().emitOp(TRUE, line)
		c.fs.track(1)
		return lvalue{}
	case token.FALSE:
		c.advance()
		c.fsChunk().emitOp(FALSE, line)
		c.fs.track(1)
		return lvalue{}
	case token.NIL:
		c.advance()
		c.fsChunk().emitOp(NIL, line)
		c.fs.track(1)
		return lvalue{}
	case token.IDENT:
		name := c.curLit.String
		c.advance()
		return c.resolveName(name, line)
	case token.LPAREN:
		c.advance()
		c.expression()
		c.consume(token.RPAREN, "expected ')' after expression")
		return lvalue{}
	case token.LBRACK:
		return c.arrayLiteral()
	case token.LBRACE:
		return c.dictLiteral()
	case token.FN:
		return c.functionExpr()
	}
	c.errorAtCurrent(UnexpectedToken, "unexpected token "+c.cur.String()+" in expression")
	c.advance()
	return lvalue{}
}

func (c *Compiler) emitInt(n int64, line int) {
	if n >= -128 && n <= 127 {
		c.fsChunk().emitOpU8(INT_SMALL, byte(int8(n)), line)
	} else {
		idx := c.fsChunk().addConstant(value.Int(n))
		c.fsChunk().emitOpU16(CONST, idx, line)
	}
	c.fs.track(1)
}

// resolveName looks up an identifier as a local, then an upvalue, then
// finally falls back to a global.
func (c *Compiler) resolveName(name string, line int) lvalue {
	if slot := resolveLocal(c.fs, name); slot != -1 {
		return lvalue{kind: lvLocal, slot: slot, isConst: c.fs.locals[slot].isConst, line: line}
	}
	if idx, isConst := resolveUpvalue(c.fs, name); idx != -1 {
		return lvalue{kind: lvUpval, slot: idx, isConst: isConst, line: line}
	}
	nameConst := c.internNameConstant(name)
	return lvalue{kind: lvGlobal, nameConst: nameConst, isConst: c.constGlobals[name], line: line}
}

func (c *Compiler) arrayLiteral() lvalue {
	line := c.line()
	c.advance() // consume '['
	n := c.argumentList(token.RBRACK)
	c.consume(token.RBRACK, "expected ']' after array elements")
	c.fsChunk().emitOpU16(ARRAY, uint16(n), line)
	c.fs.track(-n + 1)
	return lvalue{}
}

func (c *Compiler) dictLiteral() lvalue {
	line := c.line()
	c.advance() // consume '{'
	n := 0
	if !c.check(token.RBRACE) {
		for {
			c.expression() // key
			c.fs.track(1)
			c.consume(token.COLON, "expected ':' after dict key")
			c.expression() // value
			c.fs.track(1)
			n++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACE, "expected '}' after dict entries")
	c.fsChunk().emitOpU16(DICT, uint16(n), line)
	c.fs.track(-2*n + 1)
	return lvalue{}
}
