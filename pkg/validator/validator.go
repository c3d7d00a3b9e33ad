package validator

import (
	"fmt"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
)

// ValidateSnapshot checks the structural invariants of every compiled rule.
// It is installed as a registry check so a broken snapshot is never published.
func ValidateSnapshot(snap *config.Snapshot) error {
	if snap == nil {
		return invalid("", "", "snapshot is nil")
	}
	template := config.RuleTemplate()
	for _, rule := range snap.Rules {
		if rule.Name == "" {
			return invalid("", "", "rule name is required")
		}
		if len(rule.Fields) != len(template) {
			return invalid(rule.Name, "", fmt.Sprintf("rule has %d fields, expected %d", len(rule.Fields), len(template)))
		}
		for i := range rule.Fields {
			if err := ValidateField(&rule.Fields[i], template[i]); err != nil {
				return invalid(rule.Name, rule.Fields[i].Name, err.Error())
			}
		}
	}
	return nil
}

// ValidateField checks one slot against its template entry.
func ValidateField(f *config.RuleField, tmpl config.FieldTemplate) error {
	if f.Name != tmpl.Name || f.Type != tmpl.Type {
		return fmt.Errorf("slot %s/%s does not match template %s/%s", f.Name, f.Type, tmpl.Name, tmpl.Type)
	}

	switch f.Type {
	case config.TypeString:
		if f.Count != len(f.Strings) || len(f.Ranges) != 0 || f.Bitmap != 0 {
			return fmt.Errorf("string field holds a foreign payload")
		}
	case config.TypeBitmap:
		if f.Count > 1 || len(f.Strings) != 0 || len(f.Ranges) != 0 {
			return fmt.Errorf("bitmap field holds a foreign payload")
		}
		if f.Count == 0 && f.Bitmap != 0 {
			return fmt.Errorf("unset bitmap field has bits")
		}
	case config.TypeTimestamp:
		if f.Count != len(f.Ranges) || len(f.Strings) != 0 || f.Bitmap != 0 {
			return fmt.Errorf("timestamp field holds a foreign payload")
		}
		for _, r := range f.Ranges {
			if r.Begin >= r.End {
				return fmt.Errorf("range %s-%s does not advance", r.Begin, r.End)
			}
		}
	default:
		return fmt.Errorf("unknown value type %s", f.Type)
	}
	return nil
}

func invalid(rule, field, msg string) error {
	return logging.NewError(logging.ErrorTypeInvalidRule, msg, nil, map[string]interface{}{
		"rule":  rule,
		"field": field,
	})
}
