// auditcfg/pkg/config/compile.go

package config

import (
	"fmt"
	"strings"

	"rgehrsitz/auditcfg/pkg/logging"
)

// valueCompiler fills a fresh slot from the split list elements.
type valueCompiler func(tmpl FieldTemplate, value string, items []string, slot *RuleField) error

var valueCompilers = map[ValueType]valueCompiler{
	TypeString:    compileStrings,
	TypeBitmap:    compileBitmap,
	TypeTimestamp: compileTimestamps,
}

func fieldError(t logging.ErrorType, msg string, err error, field, value string) *logging.AuditError {
	return logging.NewError(t, msg, err, map[string]interface{}{
		"field": field,
		"value": value,
	})
}

// splitList splits a normalized value on sep. Empty elements, including the
// whole value being empty, are rejected.
func splitList(value string, sep string) ([]string, bool) {
	if value == "" {
		return nil, false
	}
	items := strings.Split(value, sep)
	for _, item := range items {
		if item == "" {
			return nil, false
		}
	}
	return items, true
}

// compileValue compiles value for the template field into a new slot. The
// caller replaces the previous slot only on success.
func compileValue(tmpl FieldTemplate, op, value string) (RuleField, error) {
	slot := RuleField{Name: tmpl.Name, Type: tmpl.Type}

	items, ok := splitList(value, ",")
	if !ok {
		return slot, fieldError(logging.ErrorTypeMalformedList,
			fmt.Sprintf("invalid format parameter %q of field %q in rule section", value, tmpl.Name),
			nil, tmpl.Name, value)
	}

	compile, ok := valueCompilers[tmpl.Type]
	if !ok {
		return slot, fieldError(logging.ErrorTypeInvalidRule,
			fmt.Sprintf("invalid rule type %q", tmpl.Type), nil, tmpl.Name, value)
	}
	if err := compile(tmpl, value, items, &slot); err != nil {
		return slot, err
	}
	slot.Equal = ToEquality(op)
	return slot, nil
}

func compileStrings(_ FieldTemplate, _ string, items []string, slot *RuleField) error {
	slot.Strings = make([]string, 0, len(items))
	for _, item := range items {
		slot.Strings = append(slot.Strings, stripSpace(item))
	}
	slot.Count = len(slot.Strings)
	return nil
}

func compileBitmap(tmpl FieldTemplate, _ string, items []string, slot *RuleField) error {
	var mask Bitmask
	for _, item := range items {
		bit, err := tmpl.classify(item)
		if err != nil {
			return err
		}
		mask |= bit
	}
	slot.Bitmap = mask
	slot.Count = 1
	return nil
}

// compileTimestamps expects 'HH:MM:SS-HH:MM:SS, HH:MM:SS-HH:MM:SS, ...'.
func compileTimestamps(tmpl FieldTemplate, value string, items []string, slot *RuleField) error {
	slot.Ranges = make([]TimeRange, 0, len(items))
	for _, item := range items {
		bounds, ok := splitList(item, "-")
		if !ok {
			return fieldError(logging.ErrorTypeMalformedList,
				fmt.Sprintf("invalid format parameter %q of field %q in rule section", value, tmpl.Name),
				nil, tmpl.Name, value)
		}
		if len(bounds) != 2 {
			return fieldError(logging.ErrorTypeMalformedList,
				fmt.Sprintf("timestamp parameter must be set with pair of the begin and end timestamp : %q", value),
				nil, tmpl.Name, value)
		}

		begin, err := ParseTimeOfDay(bounds[0])
		if err != nil {
			return fieldError(logging.ErrorTypeInvalidTimeLiteral, err.Error(), err, tmpl.Name, bounds[0])
		}
		end, err := ParseTimeOfDay(bounds[1])
		if err != nil {
			return fieldError(logging.ErrorTypeInvalidTimeLiteral, err.Error(), err, tmpl.Name, bounds[1])
		}
		if begin >= end {
			return fieldError(logging.ErrorTypeInvalidTimeRange,
				fmt.Sprintf("invalid timestamp parameters, the end timestamp must advance to the begin timestamp: begin = %q, end = %q",
					begin.String(), end.String()),
				nil, tmpl.Name, value)
		}
		slot.Ranges = append(slot.Ranges, TimeRange{Begin: begin, End: end})
	}
	slot.Count = len(slot.Ranges)
	return nil
}
