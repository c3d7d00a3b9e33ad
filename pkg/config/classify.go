// auditcfg/pkg/config/classify.go

package config

import (
	"strings"

	"rgehrsitz/auditcfg/pkg/logging"
)

// Bitmask is the compiled value of a BITMAP rule field.
type Bitmask uint32

// Statement classes.
const (
	ClassNone     Bitmask = 0
	ClassDDL      Bitmask = 1 << 0
	ClassFunction Bitmask = 1 << 1
	ClassMisc     Bitmask = 1 << 2
	ClassRead     Bitmask = 1 << 3
	ClassRole     Bitmask = 1 << 4
	ClassWrite    Bitmask = 1 << 5
	ClassBackup   Bitmask = 1 << 6
	ClassConnect  Bitmask = 1 << 7
	ClassError    Bitmask = 1 << 8
	ClassSystem   Bitmask = 1 << 9
	ClassAll      Bitmask = 0xFFFFFFFF
)

// Object types.
const (
	ObjectTable         Bitmask = 1 << 0
	ObjectIndex         Bitmask = 1 << 1
	ObjectSequence      Bitmask = 1 << 2
	ObjectToastValue    Bitmask = 1 << 3
	ObjectView          Bitmask = 1 << 4
	ObjectMatView       Bitmask = 1 << 5
	ObjectCompositeType Bitmask = 1 << 6
	ObjectForeignTable  Bitmask = 1 << 7
	ObjectFunction      Bitmask = 1 << 8
	ObjectUnknown       Bitmask = 1 << 9
	ObjectAll           Bitmask = 0xFFFFFFFF
)

var classNames = []struct {
	name string
	bit  Bitmask
}{
	{"BACKUP", ClassBackup},
	{"CONNECT", ClassConnect},
	{"ERROR", ClassError},
	{"NONE", ClassNone},
	{"ALL", ClassAll},
	{"DDL", ClassDDL},
	{"FUNCTION", ClassFunction},
	{"MISC", ClassMisc},
	{"READ", ClassRead},
	{"ROLE", ClassRole},
	{"WRITE", ClassWrite},
	{"SYSTEM", ClassSystem},
}

// Each object type has a configuration spelling and the spelling reported
// by the server for a live event.
var objectTypeNames = []struct {
	config string
	event  string
	bit    Bitmask
}{
	{"TABLE", "TABLE", ObjectTable},
	{"INDEX", "INDEX", ObjectIndex},
	{"SEQUENCE", "SEQUENCE", ObjectSequence},
	{"TOASTVALUE", "TOAST TABLE", ObjectToastValue},
	{"VIEW", "VIEW", ObjectView},
	{"MATVIEW", "MATERIALIZED VIEW", ObjectMatView},
	{"COMPOSITE_TYPE", "COMPOSITE TYPE", ObjectCompositeType},
	{"FOREIGN_TABLE", "FOREIGN TABLE", ObjectForeignTable},
	{"FUNCTION", "FUNCTION", ObjectFunction},
	{"UNKNOWN", "UNKNOWN", ObjectUnknown},
}

// ClassToBitmask maps a statement class name to its bit. Unknown names are
// rejected.
func ClassToBitmask(name string) (Bitmask, error) {
	for _, c := range classNames {
		if strings.EqualFold(name, c.name) {
			return c.bit, nil
		}
	}
	return 0, logging.NewError(logging.ErrorTypeUnknownClass,
		"invalid value \""+name+"\" for class", nil,
		map[string]interface{}{"field": "class", "value": name})
}

func lookupObjectType(name string) (Bitmask, bool) {
	for _, o := range objectTypeNames {
		if strings.EqualFold(name, o.config) || strings.EqualFold(name, o.event) {
			return o.bit, true
		}
	}
	return 0, false
}

// ObjectTypeForConfig classifies an object type written in configuration
// text. Typos fail the load.
func ObjectTypeForConfig(name string) (Bitmask, error) {
	if bit, ok := lookupObjectType(name); ok {
		return bit, nil
	}
	return 0, logging.NewError(logging.ErrorTypeUnknownObjectType,
		"invalid value \""+name+"\" for object_type", nil,
		map[string]interface{}{"field": "object_type", "value": name})
}

// ObjectTypeForEvent classifies the object type of a live event. An
// unrecognized kind maps to ObjectAll so the event is never dropped.
func ObjectTypeForEvent(name string) Bitmask {
	if bit, ok := lookupObjectType(name); ok {
		return bit
	}
	return ObjectAll
}
