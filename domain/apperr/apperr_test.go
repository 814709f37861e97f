package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindConstructors(t *testing.T) {
	require.Equal(t, KindInvalid, Invalid("bad").Kind)
	require.Equal(t, KindNotFound, NotFound("gone").Kind)
	require.Equal(t, KindConflict, Conflict("dup").Kind)
	require.Equal(t, KindForbidden, Forbidden("no").Kind)
	require.Equal(t, KindUnavailable, Unavailable("down").Kind)
	require.Equal(t, KindCanceled, Canceled("stopped").Kind)
}

func TestError_Error_IncludesWrappedErr(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	err := Internal("store unavailable", inner)

	require.Contains(t, err.Error(), "store unavailable")
	require.Contains(t, err.Error(), "dial tcp: refused")
	require.ErrorIs(t, err, inner)
}

func TestConflictField_CarriesFieldName(t *testing.T) {
	err := ConflictField("name already used", "name")
	require.Equal(t, "name", err.Field)
	require.Equal(t, KindConflict, err.Kind)
}

func TestWrap_PreservesKindAndAddsContext(t *testing.T) {
	base := NotFound("concept missing")
	wrapped := Wrap(base, "while resolving relationship")

	require.True(t, Is(wrapped, KindNotFound))
	require.Contains(t, wrapped.Error(), "while resolving relationship")
	require.Contains(t, wrapped.Error(), "concept missing")
}

func TestWrap_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(errors.New("boom"), "while doing x")
	require.True(t, Is(wrapped, KindInternal))
}

func TestWrap_Nil(t *testing.T) {
	require.NoError(t, Wrap(nil, "anything"))
}

func TestIsAndKindOf(t *testing.T) {
	err := Forbidden("nope")
	require.True(t, Is(err, KindForbidden))
	require.False(t, Is(err, KindInvalid))
	require.Equal(t, KindForbidden, KindOf(err))

	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
