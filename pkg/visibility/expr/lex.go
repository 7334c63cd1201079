package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type lexer struct {
	input  string
	pos    int
	tokens []token
}

func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	for {
		l.skipSpace()
		if l.pos >= len(l.input) {
			return l.tokens, nil
		}
		if err := l.next(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset >= len(l.input) {
		return 0
	}
	return l.input[l.pos+offset]
}

func (l *lexer) emit(kind tokenKind, text string, start int) {
	l.tokens = append(l.tokens, token{kind: kind, text: text, pos: start})
}

func (l *lexer) pair(second byte, kind tokenKind, op string) error {
	start := l.pos
	if l.peekAt(1) != second {
		return fmt.Errorf("expr: unexpected %q at %d; use %q", l.input[l.pos], start, op)
	}
	l.pos += 2
	l.emit(kind, op, start)
	return nil
}

func (l *lexer) next() error {
	start := l.pos
	switch ch := l.input[l.pos]; ch {
	case '(':
		l.pos++
		l.emit(tokenLParen, "(", start)
	case ')':
		l.pos++
		l.emit(tokenRParen, ")", start)
	case '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			l.emit(tokenNeq, "!=", start)
			return nil
		}
		l.pos++
		l.emit(tokenNot, "!", start)
	case '=':
		return l.pair('=', tokenEq, "==")
	case '&':
		return l.pair('&', tokenAnd, "&&")
	case '|':
		return l.pair('|', tokenOr, "||")
	case '"', '\'':
		return l.quoted(ch)
	default:
		return l.word()
	}
	return nil
}

func (l *lexer) quoted(quote byte) error {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == '\\' && l.pos+1 < len(l.input):
			b.WriteByte(l.input[l.pos+1])
			l.pos += 2
		case ch == quote:
			l.pos++
			l.emit(tokenString, b.String(), start)
			return nil
		default:
			b.WriteByte(ch)
			l.pos++
		}
	}
	return errors.New("expr: unterminated string literal")
}

func (l *lexer) word() error {
	start := l.pos
	for l.pos < len(l.input) && isWordByte(l.input[l.pos]) {
		l.pos++
	}
	text := l.input[start:l.pos]
	if text == "" {
		return fmt.Errorf("expr: unexpected %q at %d", l.input[start], start)
	}

	switch strings.ToLower(text) {
	case "true", "false":
		l.emit(tokenBool, strings.ToLower(text), start)
		return nil
	case "null", "nil":
		l.emit(tokenNull, "null", start)
		return nil
	}

	if startsNumber(text) {
		if _, err := strconv.ParseFloat(text, 64); err != nil {
			return fmt.Errorf("expr: invalid number %q at %d", text, start)
		}
		l.emit(tokenNumber, text, start)
		return nil
	}
	l.emit(tokenIdent, text, start)
	return nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isWordByte(ch byte) bool {
	if ch >= 0x80 {
		return true
	}
	r := rune(ch)
	return unicode.IsLetter(r) || unicode.IsDigit(r) || ch == '_' || ch == '-' || ch == '.' || ch == '+'
}

func startsNumber(text string) bool {
	ch := text[0]
	if ch >= '0' && ch <= '9' {
		return true
	}
	return (ch == '-' || ch == '+') && len(text) > 1 && text[1] >= '0' && text[1] <= '9'
}
