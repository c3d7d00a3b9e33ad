// auditcfg/pkg/config/parser.go

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"rgehrsitz/auditcfg/pkg/lexer"
	"rgehrsitz/auditcfg/pkg/logging"
)

type section int

const (
	sectionNone section = iota
	sectionOutput
	sectionOption
	sectionRule
)

func (s section) String() string {
	switch s {
	case sectionOutput:
		return "output section"
	case sectionOption:
		return "option section"
	case sectionRule:
		return "rule section"
	default:
		return "unknown"
	}
}

// Compiler drives the section state machine over a token stream and builds
// a private Snapshot. A Compiler is not safe for concurrent use.
type Compiler struct {
	logger  zerolog.Logger
	section section
	snap    *Snapshot
	rule    *RuleConfig
}

func NewCompiler(logger zerolog.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Parse tokenizes and compiles policy text using the package logger.
func Parse(text string) (*Snapshot, error) {
	return compileText(logging.Logger, text)
}

// ParseFile reads and compiles the policy file at path.
func ParseFile(path string) (*Snapshot, error) {
	return compileFile(logging.Logger, path)
}

func compileText(logger zerolog.Logger, text string) (*Snapshot, error) {
	tokens, err := lexer.Tokenize(text)
	if err != nil {
		return nil, err
	}
	return NewCompiler(logger).Compile(tokens)
}

func compileFile(logger zerolog.Logger, path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file %s: %w", path, err)
	}
	snap, err := compileText(logger, string(data))
	if err != nil {
		return nil, err
	}
	snap.Source = path
	return snap, nil
}

// Compile consumes tokens in order. On error nothing built so far escapes.
func (c *Compiler) Compile(tokens []lexer.Token) (*Snapshot, error) {
	c.section = sectionNone
	c.snap = newSnapshot()
	c.rule = nil

loop:
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok.Kind == lexer.EOL:
			continue
		case tok.Kind == lexer.EOF:
			break loop
		case tok.Kind.IsSection():
			if err := expectLineEnd(tokens, i+1); err != nil {
				return nil, err
			}
			c.openSection(tok)
		case tok.Kind == lexer.NAME:
			if i+2 >= len(tokens) || tokens[i+1].Kind != lexer.OPERATOR || !tokens[i+2].Kind.IsValue() {
				return nil, syntaxError(tok)
			}
			if err := expectLineEnd(tokens, i+3); err != nil {
				return nil, err
			}
			op, value := tokens[i+1], tokens[i+2]
			if err := c.apply(tok.Text, op.Text, value.Text, tok.Line); err != nil {
				return nil, err
			}
			i += 2
		default:
			return nil, syntaxError(tok)
		}
	}

	snap := c.snap
	c.snap, c.rule = nil, nil
	c.logger.Debug().Int("rules", len(snap.Rules)).Msg("Compiled audit configuration")
	return snap, nil
}

func expectLineEnd(tokens []lexer.Token, i int) error {
	if i >= len(tokens) {
		return nil
	}
	if k := tokens[i].Kind; k != lexer.EOL && k != lexer.EOF {
		return syntaxError(tokens[i])
	}
	return nil
}

func syntaxError(tok lexer.Token) error {
	return logging.NewError(logging.ErrorTypeSyntax,
		fmt.Sprintf("syntax error near %q", tok.Text), nil,
		map[string]interface{}{"line": tok.Line, "value": tok.Text})
}

func (c *Compiler) openSection(tok lexer.Token) {
	switch tok.Kind {
	case lexer.SECTION_OUTPUT:
		c.section = sectionOutput
		c.rule = nil
	case lexer.SECTION_OPTION:
		c.section = sectionOption
		c.rule = nil
	case lexer.SECTION_RULE:
		c.section = sectionRule
		c.rule = newRuleConfig(tok.Text)
		c.snap.Rules = append(c.snap.Rules, c.rule)
	}
	c.logger.Debug().Str("section", c.section.String()).Str("name", tok.Text).Msg("Entering section")
}

// apply routes one field/operator/value triple to the active section.
func (c *Compiler) apply(field, op, raw string, line int) error {
	value := raw
	if isQuoted(raw) {
		value = Normalize(raw)
	}

	var err error
	switch c.section {
	case sectionNone:
		err = fieldError(logging.ErrorTypeSettingOutsideSection,
			fmt.Sprintf("setting %q appears outside of any section", field), nil, field, raw)
	case sectionOutput:
		if !c.snap.Output.set(field, value) {
			c.logger.Debug().Str("field", field).Msg("Ignoring unknown field in output section")
		}
	case sectionOption:
		if !c.snap.Option.set(field, value) {
			c.logger.Debug().Str("field", field).Msg("Ignoring unknown field in option section")
		}
	case sectionRule:
		err = c.applyRule(field, op, value)
	}

	if err != nil {
		return c.annotate(err, field, raw, line)
	}
	return nil
}

func (c *Compiler) applyRule(field, op, value string) error {
	if strings.EqualFold(field, "format") {
		c.rule.Format = value
		return nil
	}

	i, ok := lookupField(field)
	if !ok {
		return fieldError(logging.ErrorTypeUnknownRuleField,
			fmt.Sprintf("unknown field %q in rule section", field), nil, field, value)
	}

	slot, err := compileValue(ruleTemplate[i], op, value)
	if err != nil {
		return err
	}

	if c.rule.Fields[i].IsSet() {
		c.logger.Warn().
			Str("rule", c.rule.Name).
			Str("field", field).
			Str("value", value).
			Msgf("detect duplicate field setting %q in rule section, overwritten by %q", field, value)
	}
	c.rule.Fields[i] = slot
	return nil
}

// annotate attaches the section, line and raw text to a configuration error.
func (c *Compiler) annotate(err error, field, raw string, line int) error {
	auditErr, ok := err.(*logging.AuditError)
	if !ok {
		return err
	}
	if auditErr.Fields == nil {
		auditErr.Fields = map[string]interface{}{}
	}
	auditErr.Fields["section"] = c.section.String()
	auditErr.Fields["line"] = line
	auditErr.Fields["raw"] = raw
	if _, ok := auditErr.Fields["field"]; !ok {
		auditErr.Fields["field"] = field
	}
	if c.rule != nil {
		auditErr.Fields["rule"] = c.rule.Name
	}
	return auditErr
}
