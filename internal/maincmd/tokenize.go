package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/strand-lang/strand/lang/scanner"
	"github.com/strand-lang/strand/lang/token"
)

// Tokenize runs the lexer alone over each file and prints one line per
// token: its source position, its kind, and its literal text if it carries
// one.
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	var failed bool
	for _, path := range args {
		if err := tokenizeFile(stdio, path); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("tokenize: one or more files failed")
	}
	return nil
}

func tokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	file := token.NewFile(path, len(src))
	var errMsgs []string
	var sc scanner.Scanner
	sc.Init(file, src, func(pos token.Position, msg string) {
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", pos, msg))
	})

	for {
		tok, lit := sc.Scan()
		fmt.Fprintf(stdio.Stdout, "%s: %s", token.Position{Filename: path, Line: lit.Pos.Line(), Col: lit.Pos.Col()}, tok)
		if text := literalText(tok, lit); text != "" {
			fmt.Fprintf(stdio.Stdout, " %s", text)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok == token.EOF {
			break
		}
	}

	if len(errMsgs) > 0 {
		fmt.Fprintln(stdio.Stderr, strings.Join(errMsgs, "\n"))
		return errors.New(strings.Join(errMsgs, "; "))
	}
	return nil
}

func literalText(tok token.Token, lit token.LiteralValue) string {
	switch tok {
	case token.IDENT, token.STRING:
		return lit.String
	case token.INT:
		return fmt.Sprintf("%d", lit.Int)
	case token.FLOAT:
		return fmt.Sprintf("%g", lit.Float)
	default:
		return ""
	}
}
