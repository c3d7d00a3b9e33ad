// auditcfg/pkg/lexer/scanner_test.go

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/auditcfg/pkg/logging"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}
	return out
}

func TestTokenizeSections(t *testing.T) {
	tokens, err := Tokenize("[output]\n[OPTION]\n[rule1]\n")
	require.NoError(t, err)

	assert.Equal(t, []Kind{SECTION_OUTPUT, EOL, SECTION_OPTION, EOL, SECTION_RULE, EOL, EOF}, kinds(tokens))
	assert.Equal(t, "rule1", tokens[4].Text)
	assert.Equal(t, 3, tokens[4].Line)
}

func TestTokenizeSettingLine(t *testing.T) {
	tokens, err := Tokenize("class != 'ddl, write'")
	require.NoError(t, err)

	require.Len(t, tokens, 4)
	assert.Equal(t, Token{Kind: NAME, Text: "class", Line: 1}, tokens[0])
	assert.Equal(t, Token{Kind: OPERATOR, Text: "!=", Line: 1}, tokens[1])
	assert.Equal(t, Token{Kind: NAME, Text: "'ddl, write'", Line: 1}, tokens[2])
	assert.Equal(t, EOF, tokens[3].Kind)
}

func TestTokenizeValueKinds(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"on", BOOLEAN},
		{"FALSE", BOOLEAN},
		{"42", INT},
		{"syslog", NAME},
		{"/var/log/audit.log", NAME},
		{"'quoted value'", NAME},
		{`"double"`, NAME},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize("k = " + tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, tokens[2].Kind)
			assert.Equal(t, tt.input, tokens[2].Text)
		})
	}
}

func TestTokenizeCommentsAndBlankLines(t *testing.T) {
	text := "# leading comment\n\n[option]   # trailing\nlog_catalog = off\n"
	tokens, err := Tokenize(text)
	require.NoError(t, err)

	assert.Equal(t, []Kind{EOL, EOL, SECTION_OPTION, EOL, NAME, OPERATOR, BOOLEAN, EOL, EOF}, kinds(tokens))
	assert.Equal(t, 4, tokens[4].Line)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated quote", "database = 'postgres\n"},
		{"unterminated section", "[rule1\n"},
		{"empty section", "[ ]"},
		{"bare bang", "class ! 'read'"},
		{"stray character", "class = @read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			assert.Error(t, err)
			assert.True(t, logging.IsType(err, logging.ErrorTypeSyntax))
		})
	}
}

func TestScannerNextAfterEOF(t *testing.T) {
	s := NewScanner("")
	for i := 0; i < 3; i++ {
		tok, err := s.Next()
		require.NoError(t, err)
		assert.Equal(t, EOF, tok.Kind)
	}
}
