// auditcfg/pkg/logging/errors_test.go

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	tests := []struct {
		name        string
		errType     ErrorType
		message     string
		err         error
		fields      map[string]interface{}
		expectedMsg string
	}{
		{
			name:        "Malformed list",
			errType:     ErrorTypeMalformedList,
			message:     `invalid format parameter "a,,b" of field "database" in rule section`,
			err:         nil,
			fields:      map[string]interface{}{"field": "database"},
			expectedMsg: `MALFORMED_LIST: invalid format parameter "a,,b" of field "database" in rule section`,
		},
		{
			name:        "Time literal with cause",
			errType:     ErrorTypeInvalidTimeLiteral,
			message:     "invalid input syntax for type time",
			err:         errors.New("parsing time"),
			fields:      map[string]interface{}{"value": "25:00:00"},
			expectedMsg: "INVALID_TIME_LITERAL: invalid input syntax for type time",
		},
		{
			name:        "Store error",
			errType:     ErrorTypeStore,
			message:     "publish failed",
			err:         errors.New("connection refused"),
			fields:      nil,
			expectedMsg: "STORE: publish failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditErr := NewError(tt.errType, tt.message, tt.err, tt.fields)

			assert.Equal(t, tt.errType, auditErr.Type)
			assert.Equal(t, tt.message, auditErr.Message)
			assert.Equal(t, tt.err, auditErr.Err)
			assert.Equal(t, tt.fields, auditErr.Fields)
			assert.Equal(t, tt.expectedMsg, auditErr.Error())

			if tt.err != nil {
				assert.Equal(t, tt.err, auditErr.Unwrap())
			} else {
				assert.Nil(t, auditErr.Unwrap())
			}
		})
	}
}

func TestIsType(t *testing.T) {
	base := NewError(ErrorTypeInvalidTimeRange, "bad range", nil, nil)
	wrapped := fmt.Errorf("load policy: %w", base)

	assert.True(t, IsType(base, ErrorTypeInvalidTimeRange))
	assert.True(t, IsType(wrapped, ErrorTypeInvalidTimeRange))
	assert.False(t, IsType(wrapped, ErrorTypeMalformedList))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeInvalidTimeRange))
	assert.False(t, IsType(nil, ErrorTypeInvalidTimeRange))
}

func TestLogError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected map[string]interface{}
	}{
		{
			name: "AuditError with all fields",
			err: &AuditError{
				Type:    ErrorTypeUnknownObjectType,
				Message: "Test error",
				Err:     errors.New("underlying error"),
				Fields: map[string]interface{}{
					"field": "object_type",
					"line":  42,
				},
			},
			expected: map[string]interface{}{
				"error":      "underlying error",
				"error_type": "UNKNOWN_OBJECT_TYPE",
				"message":    "Test error",
				"field":      "object_type",
				"line":       float64(42),
				"level":      "error",
			},
		},
		{
			name: "AuditError without underlying error",
			err: &AuditError{
				Type:    ErrorTypeSyntax,
				Message: "Syntax error",
				Fields: map[string]interface{}{
					"line": 10,
				},
			},
			expected: map[string]interface{}{
				"error_type": "SYNTAX",
				"message":    "Syntax error",
				"line":       float64(10),
				"level":      "error",
			},
		},
		{
			name: "Standard error",
			err:  errors.New("standard error"),
			expected: map[string]interface{}{
				"error":   "standard error",
				"message": "standard error",
				"level":   "error",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mockLogger := zerolog.New(&buf)

			LogError(mockLogger, tt.err)

			var logged map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &logged)
			assert.NoError(t, err)

			for k, v := range tt.expected {
				assert.Equal(t, v, logged[k], "Mismatch for key %s", k)
			}

			for k := range logged {
				_, expected := tt.expected[k]
				if !expected && k != "time" {
					t.Errorf("Unexpected key in logged data: %s", k)
				}
			}
		})
	}
}
