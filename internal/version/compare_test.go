package version

import (
	"testing"

	"github.com/rxtech-lab/argo-ablation/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name          string
		engineVersion string
		constraint    string
		expectError   bool
		errorContains string
	}{
		{
			name:          "empty constraint",
			engineVersion: "1.2.0",
			constraint:    "",
		},
		{
			name:          "development build",
			engineVersion: "main",
			constraint:    "^9.0",
		},
		{
			name:          "caret match",
			engineVersion: "1.4.2",
			constraint:    "^1.2",
		},
		{
			name:          "v prefix",
			engineVersion: "v1.4.2",
			constraint:    ">= 1.0, < 2",
		},
		{
			name:          "major mismatch",
			engineVersion: "2.0.0",
			constraint:    "^1.2",
			expectError:   true,
			errorContains: "does not satisfy",
		},
		{
			name:          "below minimum",
			engineVersion: "1.1.9",
			constraint:    ">= 1.2.0",
			expectError:   true,
			errorContains: "does not satisfy",
		},
		{
			name:          "invalid constraint",
			engineVersion: "1.0.0",
			constraint:    "not a constraint",
			expectError:   true,
			errorContains: "invalid engine_version constraint",
		},
		{
			name:          "invalid engine version",
			engineVersion: "banana",
			constraint:    "^1",
			expectError:   true,
			errorContains: "invalid engine version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Satisfies(tt.engineVersion, tt.constraint)

			if !tt.expectError {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.True(t, errors.HasCode(err, errors.ErrCodeBacktestConfigError))
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "1.2.3"
	assert.Equal(t, "1.2.3", GetVersion())
}
