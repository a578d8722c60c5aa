// Package token defines the lexical tokens, source positions, and the
// per-file line tables shared by the scanner, compiler and runtime error
// reporting.
package token

import "fmt"

const (
	lineBits = 18
	colBits  = 32 - lineBits

	// MaxLines is the maximum 1-based line number value that can be encoded
	// in a Pos.
	MaxLines = (1 << lineBits) - 1
	// MaxCols is the maximum 1-based column number value that can be encoded
	// in a Pos.
	MaxCols = (1 << colBits) - 1

	lineMask = MaxLines
	colMask  = MaxCols
)

// Pos is an efficient encoding of a 1-based line and column position in a
// 32-bit unsigned integer. A value of 0 for either line or column should be
// interpreted as "unknown". The zero Pos therefore means "no position".
type Pos uint32

// MakePos creates a Pos value encoding the provided line and col. It is the
// caller's responsibility to ensure the values are > 0 and do not exceed
// MaxLines/MaxCols; values are silently truncated otherwise.
func MakePos(line, col int) Pos {
	return Pos(col<<lineBits | (line & lineMask))
}

// Line returns the 1-based line encoded in p.
func (p Pos) Line() int {
	return int(p & lineMask)
}

// Col returns the 1-based column encoded in p.
func (p Pos) Col() int {
	return int((p >> lineBits) & colMask)
}

// LineCol returns the line and column values encoded in p.
func (p Pos) LineCol() (int, int) {
	return p.Line(), p.Col()
}

// Unknown reports whether either the line or column value is unknown.
func (p Pos) Unknown() bool {
	l, c := p.LineCol()
	return l == 0 || c == 0
}

func (p Pos) String() string {
	l, c := p.LineCol()
	return fmt.Sprintf("%d:%d", l, c)
}

// File tracks the name and line-break offsets of a single source unit, so
// that byte offsets recorded during scanning can be translated back to
// human-readable line:col positions for diagnostics.
type File struct {
	Name string
	// lineOffsets[i] is the byte offset of the first character of line i+1.
	lineOffsets []int
	size        int
}

// NewFile creates a File for a source buffer of the given size. AddLine must
// be called (in increasing order) for every newline encountered while
// scanning src.
func NewFile(name string, size int) *File {
	return &File{Name: name, lineOffsets: []int{0}, size: size}
}

// AddLine records that a new line begins at the given byte offset. offset
// must be strictly greater than the offset of the previously added line.
func (f *File) AddLine(offset int) {
	if n := len(f.lineOffsets); n == 0 || f.lineOffsets[n-1] < offset {
		f.lineOffsets = append(f.lineOffsets, offset)
	}
}

// Size returns the size in bytes of the file's source buffer.
func (f *File) Size() int { return f.size }

// Pos converts a byte offset into the file to a Pos. offset must be within
// [0, f.Size()].
func (f *File) Pos(offset int) Pos {
	// binary search for the line containing offset
	lo, hi := 0, len(f.lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if f.lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	line := lo + 1
	col := offset - f.lineOffsets[lo] + 1
	return MakePos(line, col)
}
