// auditcfg/pkg/config/structs.go

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleField is the compiled value of one template slot. Exactly one of
// Strings, Bitmap or Ranges is meaningful, as selected by Type, and only
// when Count > 0.
type RuleField struct {
	Name    string      `json:"name" yaml:"name"`
	Type    ValueType   `json:"type" yaml:"type"`
	Strings []string    `json:"strings,omitempty" yaml:"strings,omitempty"`
	Bitmap  Bitmask     `json:"bitmap,omitempty" yaml:"bitmap,omitempty"`
	Ranges  []TimeRange `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	Count   int         `json:"count" yaml:"count"`
	Equal   bool        `json:"equal" yaml:"equal"`
}

// IsSet reports whether the field was declared in its rule.
func (f *RuleField) IsSet() bool {
	return f.Count > 0
}

// RuleConfig is one named rule section.
type RuleConfig struct {
	Name   string      `json:"name" yaml:"name"`
	Format string      `json:"format,omitempty" yaml:"format,omitempty"`
	Fields []RuleField `json:"fields" yaml:"fields"`
}

func newRuleConfig(name string) *RuleConfig {
	fields := make([]RuleField, len(ruleTemplate))
	for i, t := range ruleTemplate {
		fields[i] = RuleField{Name: t.Name, Type: t.Type}
	}
	return &RuleConfig{Name: name, Fields: fields}
}

// Field returns the slot for a template field name, or nil.
func (r *RuleConfig) Field(name string) *RuleField {
	i, ok := lookupField(name)
	if !ok || i >= len(r.Fields) {
		return nil
	}
	return &r.Fields[i]
}

// OutputSettings holds the [output] section.
type OutputSettings struct {
	Logger   string `json:"logger,omitempty" yaml:"logger,omitempty"`
	Level    string `json:"level,omitempty" yaml:"level,omitempty"`
	Pathlog  string `json:"pathlog,omitempty" yaml:"pathlog,omitempty"`
	Facility string `json:"facility,omitempty" yaml:"facility,omitempty"`
	Priority string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Ident    string `json:"ident,omitempty" yaml:"ident,omitempty"`
	Option   string `json:"option,omitempty" yaml:"option,omitempty"`
}

// set assigns a recognized key and reports whether the key was recognized.
func (o *OutputSettings) set(key, value string) bool {
	switch strings.ToLower(key) {
	case "logger":
		o.Logger = value
	case "level":
		o.Level = value
	case "pathlog":
		o.Pathlog = value
	case "facility":
		o.Facility = value
	case "priority":
		o.Priority = value
	case "ident":
		o.Ident = value
	case "option":
		o.Option = value
	default:
		return false
	}
	return true
}

// LogLevel is the server message level audit entries are emitted at.
type LogLevel int

const (
	LevelDebug5 LogLevel = iota
	LevelDebug4
	LevelDebug3
	LevelDebug2
	LevelDebug1
	LevelInfo
	LevelNotice
	LevelWarning
	LevelLog
)

var logLevelNames = []string{"DEBUG5", "DEBUG4", "DEBUG3", "DEBUG2", "DEBUG1", "INFO", "NOTICE", "WARNING", "LOG"}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(logLevelNames) {
		return logLevelNames[l]
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLogLevel maps a keyword to a level; "debug" is an alias for DEBUG2.
func ParseLogLevel(s string) (LogLevel, bool) {
	if strings.EqualFold(s, "debug") {
		return LevelDebug2, true
	}
	for i, name := range logLevelNames {
		if strings.EqualFold(s, name) {
			return LogLevel(i), true
		}
	}
	return 0, false
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	v, ok := ParseLogLevel(string(text))
	if !ok {
		return fmt.Errorf("unknown log level %q", string(text))
	}
	*l = v
	return nil
}

// OptionSettings holds the [option] section.
type OptionSettings struct {
	Role             string   `json:"role" yaml:"role"`
	LogCatalog       bool     `json:"log_catalog" yaml:"log_catalog"`
	LogParameter     bool     `json:"log_parameter" yaml:"log_parameter"`
	LogStatementOnce bool     `json:"log_statement_once" yaml:"log_statement_once"`
	LogForTest       bool     `json:"log_for_test" yaml:"log_for_test"`
	LogLevel         LogLevel `json:"log_level" yaml:"log_level"`
	LogLevelString   string   `json:"log_level_string,omitempty" yaml:"log_level_string,omitempty"`
}

// DefaultOptions returns the option values in effect when a policy omits them.
func DefaultOptions() OptionSettings {
	return OptionSettings{
		LogCatalog: true,
		LogLevel:   LevelLog,
	}
}

// set assigns a recognized key and reports whether the key was recognized.
// An unknown log_level keyword leaves the previous level in place.
func (o *OptionSettings) set(key, value string) bool {
	switch strings.ToLower(key) {
	case "role":
		o.Role = value
	case "log_catalog":
		o.LogCatalog = ToBool(value)
	case "log_parameter":
		o.LogParameter = ToBool(value)
	case "log_statement_once":
		o.LogStatementOnce = ToBool(value)
	case "log_for_test":
		o.LogForTest = ToBool(value)
	case "log_level":
		o.LogLevelString = value
		if level, ok := ParseLogLevel(value); ok {
			o.LogLevel = level
		}
	default:
		return false
	}
	return true
}

// Snapshot is the result of one successful configuration load. It is never
// modified once it has been handed out.
type Snapshot struct {
	Source string         `json:"source,omitempty" yaml:"source,omitempty"`
	Output OutputSettings `json:"output" yaml:"output"`
	Option OptionSettings `json:"option" yaml:"option"`
	Rules  []*RuleConfig  `json:"rules" yaml:"rules"`
}

func newSnapshot() *Snapshot {
	return &Snapshot{Option: DefaultOptions()}
}

// Rule returns the first rule declared with name, or nil.
func (s *Snapshot) Rule(name string) *RuleConfig {
	for _, r := range s.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// YAML renders the snapshot for humans.
func (s *Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
