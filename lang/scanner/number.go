package scanner

import (
	"errors"
	"strconv"

	"github.com/strand-lang/strand/lang/token"
)

// scanNumber scans an integer or float literal: decimal, 0x hex, 0b binary,
// and decimal with a fractional part and/or eE exponent.
func (s *Scanner) scanNumber(startOff int, pos token.Pos) (token.Token, token.LiteralValue) {
	if s.cur == '0' && (s.peek() == 'x' || s.peek() == 'X') {
		s.advance()
		s.advance()
		digStart := s.off
		for isHexDigit(s.cur) {
			s.advance()
		}
		if s.off == digStart {
			s.error(startOff, "malformed hex literal")
		}
		v := s.parseIntBase(startOff, string(s.src[digStart:s.off]), 16)
		return token.INT, token.LiteralValue{Pos: pos, Int: v}
	}
	if s.cur == '0' && (s.peek() == 'b' || s.peek() == 'B') {
		s.advance()
		s.advance()
		digStart := s.off
		for s.cur == '0' || s.cur == '1' {
			s.advance()
		}
		if s.off == digStart {
			s.error(startOff, "malformed binary literal")
		}
		v := s.parseIntBase(startOff, string(s.src[digStart:s.off]), 2)
		return token.INT, token.LiteralValue{Pos: pos, Int: v}
	}

	for isDigit(s.cur) {
		s.advance()
	}

	isFloat := false
	if s.cur == '.' && isDigit(s.peek()) {
		isFloat = true
		s.advance()
		for isDigit(s.cur) {
			s.advance()
		}
	}
	if s.cur == 'e' || s.cur == 'E' {
		la := s.off + 1
		if la < len(s.src) && (s.src[la] == '+' || s.src[la] == '-') {
			la++
		}
		if la < len(s.src) && isDigit(s.src[la]) {
			isFloat = true
			s.advance()
			if s.cur == '+' || s.cur == '-' {
				s.advance()
			}
			for isDigit(s.cur) {
				s.advance()
			}
		}
	}

	text := string(s.src[startOff:s.off])
	if isFloat {
		f := s.parseFloat(startOff, text)
		return token.FLOAT, token.LiteralValue{Pos: pos, Float: f}
	}
	v := s.parseIntBase(startOff, text, 10)
	return token.INT, token.LiteralValue{Pos: pos, Int: v}
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// parseIntBase decodes digits (already validated by the scanner) in the
// given base. Range overflow is reported as a scanner error, the same way
// a malformed literal is, rather than silently wrapping at parse time --
// wraparound is the value layer's arithmetic rule (value.WrapInt), not the
// lexer's.
func (s *Scanner) parseIntBase(startOff int, digits string, base int) int64 {
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			s.error(startOff, "integer literal value out of range")
		}
		return v
	}
	return v
}

// parseFloat decodes a decimal float literal via strconv, matching its
// correctly-rounded decimal-to-binary conversion rather than an
// accumulate-by-repeated-division approximation.
func (s *Scanner) parseFloat(startOff int, text string) float64 {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && errors.Is(err, strconv.ErrRange) {
		s.error(startOff, "float literal value out of range")
	}
	return f
}
