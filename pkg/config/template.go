// auditcfg/pkg/config/template.go

package config

import (
	"fmt"
	"strings"
)

// ValueType selects how a rule field's value is compiled.
type ValueType int

const (
	TypeString ValueType = iota + 1
	TypeBitmap
	TypeTimestamp
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeBitmap:
		return "BITMAP"
	case TypeTimestamp:
		return "TIMESTAMP"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ValueType) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "STRING":
		*t = TypeString
	case "BITMAP":
		*t = TypeBitmap
	case "TIMESTAMP":
		*t = TypeTimestamp
	default:
		return fmt.Errorf("unknown value type %q", string(text))
	}
	return nil
}

// FieldTemplate describes one rule field. Bitmap fields carry the strict
// classifier used for each list element.
type FieldTemplate struct {
	Name     string
	Type     ValueType
	classify func(string) (Bitmask, error)
}

// The order is significant: compiled rules are positionally parallel to it.
var ruleTemplate = []FieldTemplate{
	{Name: "timestamp", Type: TypeTimestamp},
	{Name: "database", Type: TypeString},
	{Name: "audit_role", Type: TypeString},
	{Name: "class", Type: TypeBitmap, classify: ClassToBitmask},
	{Name: "command_tag", Type: TypeString},
	{Name: "object_type", Type: TypeBitmap, classify: ObjectTypeForConfig},
	{Name: "object_name", Type: TypeString},
	{Name: "application_name", Type: TypeString},
	{Name: "remote_host", Type: TypeString},
}

// RuleTemplate returns a copy of the rule field catalogue in canonical order.
func RuleTemplate() []FieldTemplate {
	out := make([]FieldTemplate, len(ruleTemplate))
	copy(out, ruleTemplate)
	return out
}

// lookupField returns the template index of name, matched case-insensitively.
func lookupField(name string) (int, bool) {
	for i, f := range ruleTemplate {
		if strings.EqualFold(name, f.Name) {
			return i, true
		}
	}
	return -1, false
}
