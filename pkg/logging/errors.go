// auditcfg/pkg/logging/errors.go

package logging

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

type ErrorType string

const (
	ErrorTypeMalformedList         ErrorType = "MALFORMED_LIST"
	ErrorTypeInvalidTimeLiteral    ErrorType = "INVALID_TIME_LITERAL"
	ErrorTypeInvalidTimeRange      ErrorType = "INVALID_TIME_RANGE"
	ErrorTypeUnknownObjectType     ErrorType = "UNKNOWN_OBJECT_TYPE"
	ErrorTypeUnknownClass          ErrorType = "UNKNOWN_CLASS"
	ErrorTypeUnknownRuleField      ErrorType = "UNKNOWN_RULE_FIELD"
	ErrorTypeSettingOutsideSection ErrorType = "SETTING_OUTSIDE_SECTION"
	ErrorTypeSyntax                ErrorType = "SYNTAX"
	ErrorTypeInvalidRule           ErrorType = "INVALID_RULE"
	ErrorTypeStore                 ErrorType = "STORE"
	ErrorTypeCatalog               ErrorType = "CATALOG"
)

// AuditError is the single error shape returned by every configuration load
// failure. Fields carries the offending field, section and raw value so the
// misconfiguration can be located without re-reading the file.
type AuditError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]interface{}
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AuditError) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, message string, err error, fields map[string]interface{}) *AuditError {
	return &AuditError{
		Type:    errType,
		Message: message,
		Err:     err,
		Fields:  fields,
	}
}

// IsType reports whether err, or any error it wraps, is an AuditError of type t.
func IsType(err error, t ErrorType) bool {
	var auditErr *AuditError
	if !errors.As(err, &auditErr) {
		return false
	}
	return auditErr.Type == t
}

func LogError(logger zerolog.Logger, err error) {
	auditErr, ok := err.(*AuditError)
	if !ok {
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	event := logger.Error().Err(auditErr.Err).
		Str("error_type", string(auditErr.Type)).
		Str("message", auditErr.Message)

	for k, v := range auditErr.Fields {
		event = event.Interface(k, v)
	}

	event.Msg(auditErr.Message)
}
