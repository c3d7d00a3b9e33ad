package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/logging"
)

func TestValidateCompiledSnapshot(t *testing.T) {
	snap, err := config.Parse("[r]\nclass = 'read'\ndatabase = 'a, b'\ntimestamp = '01:00-02:00'\n")
	require.NoError(t, err)
	assert.NoError(t, ValidateSnapshot(snap))
}

func TestValidateSnapshotRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *config.RuleConfig)
	}{
		{"empty name", func(r *config.RuleConfig) { r.Name = "" }},
		{"missing slots", func(r *config.RuleConfig) { r.Fields = r.Fields[:3] }},
		{"count mismatch", func(r *config.RuleConfig) { r.Field("database").Count = 5 }},
		{"foreign payload", func(r *config.RuleConfig) { r.Field("class").Strings = []string{"x"} }},
		{"stray bits", func(r *config.RuleConfig) { r.Field("object_type").Bitmap = config.ObjectTable }},
		{"reversed range", func(r *config.RuleConfig) {
			f := r.Field("timestamp")
			f.Ranges[0].Begin, f.Ranges[0].End = f.Ranges[0].End, f.Ranges[0].Begin
		}},
		{"wrong type", func(r *config.RuleConfig) { r.Field("database").Type = config.TypeBitmap }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := config.Parse("[r]\nclass = 'read'\ndatabase = 'a'\ntimestamp = '01:00-02:00'\n")
			require.NoError(t, err)

			tt.mutate(snap.Rules[0])
			err = ValidateSnapshot(snap)
			assert.Error(t, err)
			assert.True(t, logging.IsType(err, logging.ErrorTypeInvalidRule))
		})
	}
}

func TestValidateNilSnapshot(t *testing.T) {
	assert.Error(t, ValidateSnapshot(nil))
}
