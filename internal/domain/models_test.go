package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValueMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    ValueMethod
		wantErr bool
	}{
		{in: "", want: ValueAbsolute},
		{in: "absolute", want: ValueAbsolute},
		{in: "relative", want: ValueRelative},
		{in: "percent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValueMethod(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueMethod_Resolve(t *testing.T) {
	assert.Equal(t, 45.0, ValueAbsolute.Resolve(45, 50))
	assert.InDelta(t, 45.0, ValueRelative.Resolve(0.9, 50), 1e-12)
}

func TestParseExerciseStyle(t *testing.T) {
	got, err := ParseExerciseStyle("US")
	require.NoError(t, err)
	assert.Equal(t, American, got)

	got, err = ParseExerciseStyle("")
	require.NoError(t, err)
	assert.Equal(t, European, got)

	_, err = ParseExerciseStyle("Bermudan")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.234568, Round(1.2345678, 6))
	assert.Equal(t, 50.0, Round(49.9999999, 6))
	// half to even
	assert.Equal(t, 0.0, Round(0.5, 0))
	assert.Equal(t, 2.0, Round(1.5, 0))
}
