package script

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenWord
	TokenString
	TokenNumber
	TokenOperator
	TokenLeftParen
	TokenRightParen
	TokenComma
)

type Token struct {
	Type   TokenType
	Value  string
	Column int
}

// LexLine tokenizes one script line. Words cover identifiers, keywords and
// dotted selector paths (body.items.0.id, env.token, Content-Type).
func LexLine(line string) ([]Token, error) {
	l := NewLineLexer(line)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// LineLexer walks one line token by token. Callers that embed raw payloads
// after a keyword (an inline JSON schema, say) switch to Rest once they hit
// the keyword.
type LineLexer struct {
	input string
	pos   int
}

func NewLineLexer(line string) *LineLexer {
	return &LineLexer{input: line}
}

// Rest returns the untokenized remainder of the line, trimmed.
func (l *LineLexer) Rest() string {
	return strings.TrimSpace(l.input[l.pos:])
}

func (l *LineLexer) Next() (Token, error) {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Column: l.pos}, nil
	}

	col := l.pos
	ch := l.input[l.pos]

	switch ch {
	case '(':
		l.pos++
		return Token{Type: TokenLeftParen, Value: "(", Column: col}, nil
	case ')':
		l.pos++
		return Token{Type: TokenRightParen, Value: ")", Column: col}, nil
	case ',':
		l.pos++
		return Token{Type: TokenComma, Value: ",", Column: col}, nil
	case '"', '\'':
		return l.readString(ch)
	case '=', '!':
		if l.peek(1) == '=' {
			l.pos += 2
			return Token{Type: TokenOperator, Value: string(ch) + "=", Column: col}, nil
		}
		if ch == '!' {
			// word operators negated with !, e.g. !exists
			l.pos++
			word := l.readWord()
			return Token{Type: TokenOperator, Value: "!" + strings.ToLower(word), Column: col}, nil
		}
		return Token{}, fmt.Errorf("column %d: unexpected character %q", col, ch)
	case '>', '<':
		if l.peek(1) == '=' {
			l.pos += 2
			return Token{Type: TokenOperator, Value: string(ch) + "=", Column: col}, nil
		}
		l.pos++
		return Token{Type: TokenOperator, Value: string(ch), Column: col}, nil
	}

	if isDigit(ch) || (ch == '-' && isDigit(l.peek(1))) {
		return l.readNumber(), nil
	}
	if isWordStart(ch) {
		word := l.readWord()
		return Token{Type: TokenWord, Value: word, Column: col}, nil
	}
	return Token{}, fmt.Errorf("column %d: unexpected character %q", col, ch)
}

func (l *LineLexer) peek(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *LineLexer) readString(quote byte) (Token, error) {
	col := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.peek(1) == quote {
			b.WriteByte(quote)
			l.pos += 2
			continue
		}
		if ch == quote {
			l.pos++
			return Token{Type: TokenString, Value: b.String(), Column: col}, nil
		}
		b.WriteByte(ch)
		l.pos++
	}
	return Token{}, fmt.Errorf("column %d: unterminated string", col)
}

func (l *LineLexer) readNumber() Token {
	col := l.pos
	var b strings.Builder
	if l.input[l.pos] == '-' {
		b.WriteByte('-')
		l.pos++
	}
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		b.WriteByte(l.input[l.pos])
		l.pos++
	}
	return Token{Type: TokenNumber, Value: b.String(), Column: col}
}

func (l *LineLexer) readWord() string {
	var b strings.Builder
	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		b.WriteByte(l.input[l.pos])
		l.pos++
	}
	return b.String()
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isWordStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isWordChar(ch byte) bool {
	return isWordStart(ch) || isDigit(ch) || ch == '.' || ch == '-'
}
