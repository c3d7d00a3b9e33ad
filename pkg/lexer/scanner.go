// auditcfg/pkg/lexer/scanner.go

package lexer

import (
	"strings"
	"unicode"

	"rgehrsitz/auditcfg/pkg/logging"
)

// Scanner turns policy text into a token stream. Lines are independent:
// a quoted literal cannot span a newline.
type Scanner struct {
	src  []rune
	pos  int
	line int
}

func NewScanner(text string) *Scanner {
	return &Scanner{src: []rune(text), line: 1}
}

// Tokenize scans the whole text and returns the tokens terminated by EOF.
func Tokenize(text string) ([]Token, error) {
	s := NewScanner(text)
	var tokens []Token
	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (s *Scanner) Next() (Token, error) {
	s.skipBlanks()
	if s.pos >= len(s.src) {
		return Token{Kind: EOF, Line: s.line}, nil
	}

	r := s.src[s.pos]
	switch {
	case r == '#':
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.pos++
		}
		return s.Next()
	case r == '\n':
		tok := Token{Kind: EOL, Text: "\n", Line: s.line}
		s.pos++
		s.line++
		return tok, nil
	case r == '[':
		return s.scanSection()
	case r == '\'' || r == '"':
		return s.scanQuoted(r)
	case r == '=':
		s.pos++
		return Token{Kind: OPERATOR, Text: "=", Line: s.line}, nil
	case r == '!':
		if s.pos+1 < len(s.src) && s.src[s.pos+1] == '=' {
			s.pos += 2
			return Token{Kind: OPERATOR, Text: "!=", Line: s.line}, nil
		}
		return Token{}, s.syntaxError("unexpected character \"!\"")
	case isWordRune(r):
		return s.scanWord(), nil
	}
	return Token{}, s.syntaxError("unexpected character " + quoteRune(r))
}

func (s *Scanner) skipBlanks() {
	for s.pos < len(s.src) {
		r := s.src[s.pos]
		if r == '\n' || !unicode.IsSpace(r) {
			return
		}
		s.pos++
	}
}

func (s *Scanner) scanSection() (Token, error) {
	start := s.pos + 1
	end := start
	for end < len(s.src) && s.src[end] != ']' && s.src[end] != '\n' {
		end++
	}
	if end >= len(s.src) || s.src[end] != ']' {
		return Token{}, s.syntaxError("unterminated section header")
	}
	name := strings.TrimSpace(string(s.src[start:end]))
	if name == "" {
		return Token{}, s.syntaxError("empty section name")
	}
	s.pos = end + 1

	kind := SECTION_RULE
	switch strings.ToLower(name) {
	case "output":
		kind = SECTION_OUTPUT
	case "option":
		kind = SECTION_OPTION
	}
	return Token{Kind: kind, Text: name, Line: s.line}, nil
}

func (s *Scanner) scanQuoted(quote rune) (Token, error) {
	end := s.pos + 1
	for end < len(s.src) && s.src[end] != quote && s.src[end] != '\n' {
		end++
	}
	if end >= len(s.src) || s.src[end] != quote {
		return Token{}, s.syntaxError("unterminated quoted string")
	}
	text := string(s.src[s.pos : end+1])
	s.pos = end + 1
	return Token{Kind: NAME, Text: text, Line: s.line}, nil
}

func (s *Scanner) scanWord() Token {
	start := s.pos
	for s.pos < len(s.src) && isWordRune(s.src[s.pos]) {
		s.pos++
	}
	text := string(s.src[start:s.pos])

	kind := NAME
	switch {
	case isDigits(text):
		kind = INT
	case isBoolWord(text):
		kind = BOOLEAN
	}
	return Token{Kind: kind, Text: text, Line: s.line}
}

func (s *Scanner) syntaxError(msg string) error {
	return logging.NewError(logging.ErrorTypeSyntax, msg, nil, map[string]interface{}{
		"line": s.line,
	})
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_.:/-+", r)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isBoolWord(s string) bool {
	switch strings.ToLower(s) {
	case "on", "off", "true", "false":
		return true
	}
	return false
}

func quoteRune(r rune) string {
	return "\"" + string(r) + "\""
}
