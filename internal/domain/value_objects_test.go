package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTitle(t *testing.T) {
	title, err := NewTitle("  Write report  ")
	require.NoError(t, err)
	assert.Equal(t, "Write report", title.String())

	_, err = NewTitle("   ")
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = NewTitle(strings.Repeat("x", 256))
	assert.ErrorIs(t, err, ErrTitleTooLong)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "low", want: LevelLow},
		{in: "MEDIUM", want: LevelMedium},
		{in: " high ", want: LevelHigh},
		{in: "critical", want: LevelCritical},
		{in: "", want: LevelMedium},
		{in: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidEnum), "expected ErrInvalidEnum, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_Ordinal(t *testing.T) {
	for i, l := range []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical} {
		got, ok := l.Ordinal()
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}

	_, ok := Level("bogus").Ordinal()
	assert.False(t, ok)
}

func TestParseEnums_RejectUnknown(t *testing.T) {
	_, err := ParseTaskStatus("archived")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseDependencyType("requires")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseFrequency("hourly")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseProjectStatus("paused")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseProjectRole("owner")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = ParseBusinessPhase("sunset")
	assert.ErrorIs(t, err, ErrInvalidEnum)

	phase, err := ParseBusinessPhase("Launch")
	require.NoError(t, err)
	assert.Equal(t, PhaseLaunch, phase)
}

func TestValidateCompletion(t *testing.T) {
	assert.NoError(t, ValidateCompletion(0))
	assert.NoError(t, ValidateCompletion(100))
	assert.ErrorIs(t, ValidateCompletion(-1), ErrInvalidCompletion)
	assert.ErrorIs(t, ValidateCompletion(100.5), ErrInvalidCompletion)
}

func TestParseEtag(t *testing.T) {
	v, err := ParseEtag("42")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	for _, bad := range []string{"", "0", "-1", "abc", `"1"`} {
		_, err := ParseEtag(bad)
		assert.ErrorIs(t, err, ErrInvalidEtagFormat, bad)
	}
}
