package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Name  string `validate:"required,min=2,max=5"`
	Email string `validate:"omitempty,email"`
	Level string `validate:"oneof=low medium high"`
}

func TestValidateStruct_Valid(t *testing.T) {
	require.NoError(t, ValidateStruct(testPayload{Name: "ab", Email: "a@b.com", Level: "low"}))
}

func TestValidateStruct_RequiredField(t *testing.T) {
	err := ValidateStruct(testPayload{Level: "low"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}

func TestValidateStruct_MinMax(t *testing.T) {
	err := ValidateStruct(testPayload{Name: "a", Level: "low"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least 2 characters")

	err = ValidateStruct(testPayload{Name: "toolong", Level: "low"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at most 5 characters")
}

func TestValidateStruct_Email(t *testing.T) {
	err := ValidateStruct(testPayload{Name: "ab", Email: "not-an-email", Level: "low"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "valid email")
}

func TestValidateStruct_OneOf(t *testing.T) {
	err := ValidateStruct(testPayload{Name: "ab", Level: "extreme"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be one of")
}
