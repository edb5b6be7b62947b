package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		engine        string
		required      string
		expectCode    errors.ErrorCode
		errorContains string
	}{
		{name: "no requirement", engine: "0.4.0", required: ""},
		{name: "exact match", engine: "0.4.0", required: "0.4.0"},
		{name: "patch differs", engine: "0.4.0", required: "0.4.7"},
		{name: "v prefix on both", engine: "v0.4.1", required: "v0.4.0"},
		{name: "engine is main", engine: "main", required: "9.9.9"},
		{name: "requirement is main", engine: "0.4.0", required: "main"},
		{name: "constraint satisfied", engine: "0.4.2", required: ">= 0.3, < 0.5"},
		{name: "tilde constraint", engine: "0.4.2", required: "~0.4"},
		{
			name:          "minor differs",
			engine:        "0.5.0",
			required:      "0.4.0",
			expectCode:    errors.ErrCodeVersionMismatch,
			errorContains: "minor version mismatch",
		},
		{
			name:          "major differs",
			engine:        "1.4.0",
			required:      "0.4.0",
			expectCode:    errors.ErrCodeVersionMismatch,
			errorContains: "major version mismatch",
		},
		{
			name:          "constraint not satisfied",
			engine:        "0.6.0",
			required:      "< 0.5",
			expectCode:    errors.ErrCodeVersionMismatch,
			errorContains: "does not satisfy",
		},
		{
			name:          "invalid engine version",
			engine:        "not-a-version",
			required:      "0.4.0",
			expectCode:    errors.ErrCodeInvalidVersion,
			errorContains: "invalid engine version",
		},
		{
			name:          "invalid requirement",
			engine:        "0.4.0",
			required:      "latest please",
			expectCode:    errors.ErrCodeInvalidVersion,
			errorContains: "invalid engine_version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(tt.engine, tt.required)

			if tt.expectCode == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.expectCode))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
