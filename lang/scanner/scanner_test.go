package scanner_test

import (
	gotoken "go/token"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strand-lang/strand/lang/scanner"
	"github.com/strand-lang/strand/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, []token.LiteralValue, scanner.ErrorList) {
	t.Helper()
	var el scanner.ErrorList
	f := token.NewFile("test.strand", len(src))
	var s scanner.Scanner
	s.Init(f, []byte(src), func(pos token.Position, msg string) {
		el.Add(gotoken.Position{Filename: pos.Filename, Line: pos.Line, Column: pos.Col}, msg)
	})

	var toks []token.Token
	var lits []token.LiteralValue
	for {
		tok, lit := s.Scan()
		toks = append(toks, tok)
		lits = append(lits, lit)
		if tok == token.EOF {
			break
		}
	}
	return toks, lits, el
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks, _, errs := scanAll(t, `let x = 1 + 2 fn f() return end`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.ASSIGN, token.INT, token.PLUS, token.INT,
		token.FN, token.IDENT, token.LPAREN, token.RPAREN, token.RETURN, token.END,
		token.EOF,
	}, toks)
}

func TestScanNumbers(t *testing.T) {
	toks, lits, errs := scanAll(t, `0x1F 0b101 3.5 1e3 42`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.INT, token.INT, token.FLOAT, token.FLOAT, token.INT, token.EOF}, toks)
	require.EqualValues(t, 31, lits[0].Int)
	require.EqualValues(t, 5, lits[1].Int)
	require.InDelta(t, 3.5, lits[2].Float, 1e-9)
	require.InDelta(t, 1000.0, lits[3].Float, 1e-9)
	require.EqualValues(t, 42, lits[4].Int)
}

func TestScanStringEscapes(t *testing.T) {
	toks, lits, errs := scanAll(t, `"a\nb\x41c"`)
	require.Empty(t, errs)
	require.Equal(t, []token.Token{token.STRING, token.EOF}, toks)
	require.Equal(t, "a\nbAc", lits[0].String)
}

func TestScanComments(t *testing.T) {
	toks, _, errs := scanAll(t, "let x = 1 // trailing\n/* block\ncomment */ let y = 2")
	require.Empty(t, errs)
	require.Equal(t, []token.Token{
		token.LET, token.IDENT, token.ASSIGN, token.INT,
		token.LET, token.IDENT, token.ASSIGN, token.INT,
		token.EOF,
	}, toks)
}

func TestScanUnterminatedString(t *testing.T) {
	_, _, errs := scanAll(t, `"unterminated`)
	require.NotEmpty(t, errs)
}

// TestScanRoundTrip verifies that re-tokenizing the minimal-whitespace
// re-emission of a token stream produces an equivalent stream, modulo
// position -- the lexer round-trip property from the test plan.
func TestScanRoundTrip(t *testing.T) {
	src := `let a=[1,2,3] if a[0]<2 then print(a) end`
	toks1, lits1, errs1 := scanAll(t, src)
	require.Empty(t, errs1)

	var sb []byte
	for i, tok := range toks1 {
		if tok == token.EOF {
			break
		}
		if i > 0 {
			sb = append(sb, ' ')
		}
		switch tok {
		case token.IDENT, token.INT:
			sb = append(sb, tokenText(tok, lits1[i])...)
		case token.STRING:
			sb = append(sb, '"')
			sb = append(sb, lits1[i].String...)
			sb = append(sb, '"')
		default:
			sb = append(sb, tok.String()...)
		}
	}

	toks2, _, errs2 := scanAll(t, string(sb))
	require.Empty(t, errs2)
	require.Equal(t, toks1, toks2)
}

func tokenText(tok token.Token, lit token.LiteralValue) string {
	if tok == token.IDENT {
		return lit.String
	}
	return itoaForTest(lit.Int)
}

func itoaForTest(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
