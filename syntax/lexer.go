package syntax

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Lexer is responsible for tokenizing a CIR source file.
type Lexer struct {
	file    *bufio.Reader
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int
}

// NewLexer creates a new lexer over the given reader.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		file:    bufio.NewReader(r),
		tokBuff: &strings.Builder{},
		line:    1,
		col:     1,
	}
}

// NextToken retrieves the next token from the input.  If the input has ended,
// this will be an EOF token.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if c == -1 {
			return &Token{Kind: TokEOF, Line: l.line, Col: l.col}, nil
		}

		switch c {
		case '\n', '\t', ' ', '\r', '\v', '\f':
			l.skip()
		case ';':
			// Line comment: skip to end of line.
			for c != '\n' && c != -1 {
				l.skip()

				if c, err = l.peek(); err != nil {
					return nil, err
				}
			}
		case '@':
			return l.lexPrefixedName(TokGlobal)
		case '%':
			return l.lexPrefixedName(TokLocal)
		case ':':
			return l.lexColonOrAtom()
		case '(':
			return l.lexPunct(TokLParen)
		case ')':
			return l.lexPunct(TokRParen)
		case '{':
			return l.lexPunct(TokLBrace)
		case '}':
			return l.lexPunct(TokRBrace)
		case ',':
			return l.lexPunct(TokComma)
		case '=':
			return l.lexPunct(TokAssign)
		default:
			if isDecimalDigit(c) || c == '-' {
				return l.lexNumericLit()
			} else if isIdentChar(c) {
				return l.lexIdent()
			}

			return nil, fmt.Errorf("%d:%d: unexpected character `%c`", l.line, l.col, c)
		}
	}
}

// -----------------------------------------------------------------------------

// lexPunct emits a single-character punctuation token of the given kind.
func (l *Lexer) lexPunct(kind int) (*Token, error) {
	l.mark()
	l.skip()
	return l.makeToken(kind), nil
}

// lexPrefixedName lexes a `@name` or `%name` token.  The prefix character is
// not included in the token value.
func (l *Lexer) lexPrefixedName(kind int) (*Token, error) {
	l.mark()
	l.skip()

	if err := l.readIdentChars(); err != nil {
		return nil, err
	}

	if l.tokBuff.Len() == 0 {
		return nil, fmt.Errorf("%d:%d: expected a name after the sigil", l.startLine, l.startCol)
	}

	return l.makeToken(kind), nil
}

// lexColonOrAtom lexes either a lone `:` or an atom literal `:name`.
func (l *Lexer) lexColonOrAtom() (*Token, error) {
	l.mark()
	l.skip()

	if err := l.readIdentChars(); err != nil {
		return nil, err
	}

	if l.tokBuff.Len() == 0 {
		return l.makeToken(TokColon), nil
	}

	return l.makeToken(TokAtom), nil
}

// lexNumericLit lexes an integer or float literal, including an optional
// leading minus sign.
func (l *Lexer) lexNumericLit() (*Token, error) {
	l.mark()
	l.read()

	kind := TokIntLit
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if isDecimalDigit(c) {
			l.read()
		} else if c == '.' || c == 'e' || c == 'E' || (kind == TokFloatLit && (c == '+' || c == '-')) {
			kind = TokFloatLit
			l.read()
		} else {
			break
		}
	}

	return l.makeToken(kind), nil
}

// lexIdent lexes a bare identifier.
func (l *Lexer) lexIdent() (*Token, error) {
	l.mark()

	if err := l.readIdentChars(); err != nil {
		return nil, err
	}

	return l.makeToken(TokIdent), nil
}

// readIdentChars consumes identifier characters into the token buffer.
func (l *Lexer) readIdentChars() error {
	for {
		c, err := l.peek()
		if err != nil {
			return err
		}

		// A digit can never start a bare identifier (NextToken dispatches
		// digits to the numeric lexer) but is fine anywhere else, including
		// at the start of builder-generated local names like `%0`.
		if isIdentChar(c) || isDecimalDigit(c) {
			l.read()
		} else {
			return nil
		}
	}
}

// -----------------------------------------------------------------------------

// mark records the position of the start of the current token and resets the
// token buffer.
func (l *Lexer) mark() {
	l.startLine = l.line
	l.startCol = l.col
	l.tokBuff.Reset()
}

// makeToken produces a token of the given kind from the token buffer.
func (l *Lexer) makeToken(kind int) *Token {
	return &Token{
		Kind:  kind,
		Value: l.tokBuff.String(),
		Line:  l.startLine,
		Col:   l.startCol,
	}
}

// peek returns the next character of input without consuming it.  It returns
// -1 at the end of input.
func (l *Lexer) peek() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err == io.EOF {
		return -1, nil
	} else if err != nil {
		return 0, err
	}

	if err := l.file.UnreadRune(); err != nil {
		return 0, err
	}

	return c, nil
}

// read consumes the next character of input into the token buffer.
func (l *Lexer) read() {
	c, _, err := l.file.ReadRune()
	if err != nil {
		return
	}

	l.tokBuff.WriteRune(c)
	l.advancePos(c)
}

// skip consumes the next character of input without buffering it.
func (l *Lexer) skip() {
	c, _, err := l.file.ReadRune()
	if err != nil {
		return
	}

	l.advancePos(c)
}

func (l *Lexer) advancePos(c rune) {
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// -----------------------------------------------------------------------------

func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isIdentChar(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_' || c == '.'
}
