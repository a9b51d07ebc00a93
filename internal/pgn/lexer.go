// FILE: internal/pgn/lexer.go
package pgn

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokTag
	tokComment
	tokOpen
	tokClose
	tokNAG
	tokSAN
	tokResult
)

type token struct {
	kind  tokenKind
	text  string // SAN, comment body, result, tag name
	value string // tag value
	nag   int
	line  int
	col   int
}

// ParseError reports malformed PGN with the position it was detected at
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pgn: line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

type lexer struct {
	src  []rune
	pos  int
	line int
	col  int
}

func newLexer(text string) *lexer {
	return &lexer{src: []rune(text), line: 1, col: 1}
}

func (l *lexer) errorf(line, col int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.src)
}

// next returns the following token, skipping whitespace, move numbers,
// line comments introduced by ';' and '%' escape lines
func (l *lexer) next() (token, error) {
	for {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}
		if l.eof() {
			return token{kind: tokEOF, line: l.line, col: l.col}, nil
		}

		line, col := l.line, l.col
		r := l.peek()

		switch {
		case r == '%' && col == 1, r == ';':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
			continue
		case r == '[':
			return l.readTag()
		case r == '{':
			return l.readComment()
		case r == '(':
			l.advance()
			return token{kind: tokOpen, line: line, col: col}, nil
		case r == ')':
			l.advance()
			return token{kind: tokClose, line: line, col: col}, nil
		case r == '$':
			l.advance()
			digits := l.readWhile(isDigit)
			n, err := strconv.Atoi(digits)
			if err != nil {
				return token{}, l.errorf(line, col, "invalid NAG %q", "$"+digits)
			}
			return token{kind: tokNAG, nag: n, line: line, col: col}, nil
		case r == '*':
			l.advance()
			return token{kind: tokResult, text: "*", line: line, col: col}, nil
		case isSymbol(r):
			word := l.readWhile(isSymbol)
			tok, skip, err := l.classify(word, line, col)
			if err != nil {
				return token{}, err
			}
			if skip {
				continue
			}
			return tok, nil
		default:
			return token{}, l.errorf(line, col, "unexpected character %q", r)
		}
	}
}

// classify turns a symbol word into a result, a SAN token, or nothing when
// the word is only a move number
func (l *lexer) classify(word string, line, col int) (token, bool, error) {
	switch word {
	case "1-0", "0-1", "1/2-1/2":
		return token{kind: tokResult, text: word, line: line, col: col}, false, nil
	}

	// Strip a leading move number such as "12." or "12..."
	i := 0
	for i < len(word) && isDigit(rune(word[i])) {
		i++
	}
	if i > 0 && i < len(word) && word[i] == '.' {
		for i < len(word) && word[i] == '.' {
			i++
		}
		word = word[i:]
		col += i
	} else if i == len(word) {
		// bare number without dots, tolerated as a move number
		return token{}, true, nil
	}
	word = strings.TrimLeft(word, ".")
	if word == "" {
		return token{}, true, nil
	}

	// Standalone annotation glyphs such as "!?" outside a move
	if strings.Trim(word, "!?") == "" {
		return token{}, true, nil
	}

	return token{kind: tokSAN, text: word, line: line, col: col}, false, nil
}

func (l *lexer) readTag() (token, error) {
	line, col := l.line, l.col
	l.advance() // [
	l.skipSpaces()
	name := l.readWhile(func(r rune) bool { return isSymbol(r) })
	if name == "" {
		return token{}, l.errorf(line, col, "tag without a name")
	}
	l.skipSpaces()
	if l.eof() || l.peek() != '"' {
		return token{}, l.errorf(l.line, l.col, "tag %s: expected quoted value", name)
	}
	l.advance() // opening quote

	var sb strings.Builder
	for {
		if l.eof() {
			return token{}, l.errorf(line, col, "tag %s: unterminated value", name)
		}
		r := l.advance()
		if r == '\\' && !l.eof() {
			sb.WriteRune(l.advance())
			continue
		}
		if r == '"' {
			break
		}
		sb.WriteRune(r)
	}

	l.skipSpaces()
	if l.eof() || l.peek() != ']' {
		return token{}, l.errorf(l.line, l.col, "tag %s: expected ']'", name)
	}
	l.advance()
	return token{kind: tokTag, text: name, value: sb.String(), line: line, col: col}, nil
}

func (l *lexer) readComment() (token, error) {
	line, col := l.line, l.col
	l.advance() // {
	var sb strings.Builder
	for {
		if l.eof() {
			return token{}, l.errorf(line, col, "unterminated comment")
		}
		r := l.advance()
		if r == '}' {
			break
		}
		sb.WriteRune(r)
	}
	return token{kind: tokComment, text: strings.TrimSpace(sb.String()), line: line, col: col}, nil
}

func (l *lexer) readWhile(pred func(rune) bool) string {
	start := l.pos
	for !l.eof() && pred(l.peek()) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) skipSpaces() {
	for !l.eof() && isSpace(l.peek()) {
		l.advance()
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSymbol(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', isDigit(r):
		return true
	}
	return strings.ContainsRune("_+#=:-/.!?", r)
}
