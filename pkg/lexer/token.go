// auditcfg/pkg/lexer/token.go

package lexer

import "fmt"

// Kind classifies a token produced by the Scanner.
type Kind int

const (
	NAME Kind = iota + 1
	INT
	BOOLEAN
	OPERATOR
	EOL
	EOF
	SECTION_OUTPUT
	SECTION_OPTION
	SECTION_RULE
)

var kindNames = map[Kind]string{
	NAME:           "NAME",
	INT:            "INT",
	BOOLEAN:        "BOOLEAN",
	OPERATOR:       "OPERATOR",
	EOL:            "EOL",
	EOF:            "EOF",
	SECTION_OUTPUT: "SECTION_OUTPUT",
	SECTION_OPTION: "SECTION_OPTION",
	SECTION_RULE:   "SECTION_RULE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsSection reports whether the token opens a section.
func (k Kind) IsSection() bool {
	return k == SECTION_OUTPUT || k == SECTION_OPTION || k == SECTION_RULE
}

// IsValue reports whether the token may appear on the right side of an operator.
func (k Kind) IsValue() bool {
	return k == NAME || k == INT || k == BOOLEAN
}

// Token is a classified piece of configuration text. For section tokens Text
// holds the bracketed name without brackets; quoted literals keep their quotes.
type Token struct {
	Kind Kind
	Text string
	Line int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Text, t.Line)
}
