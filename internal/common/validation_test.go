package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("fetch_uri", "ftp://example.org", Required, AbsoluteURL).
		Field("delimiter", "  ", Required).
		Field("structure", []string{"Topic", "Topic"}, Required, NoBlankEntries)

	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)

	err := v.Error()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "absolute http(s) URL")
	assert.Contains(t, err.Error(), `repeats "Topic"`)
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator().
		Field("fetch_uri", "https://court.example.org/judgments", Required, AbsoluteURL, MaxLength(2048)).
		Field("structure", []string{"S.No", "Topic"}, Required, NoBlankEntries)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}

func TestValidationErrorMatchesSentinel(t *testing.T) {
	var err error = ValidationError{Field: "Judgement", Message: "is required"}
	assert.True(t, errors.Is(err, ErrValidation))
}
