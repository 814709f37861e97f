package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"substrate/domain/apperr"
)

func TestRespondJSON_WritesStatusAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, zap.NewNop(), http.StatusCreated, map[string]string{"ok": "yes"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}

func TestRespondJSON_NilDataWritesNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	respondJSON(rec, zap.NewNop(), http.StatusNoContent, nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestRespondMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	respondMessage(rec, zap.NewNop(), http.StatusBadRequest, "bad input")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":true,"message":"bad input","code":400}`, rec.Body.String())
}

func TestRespondErr_MapsKindsToStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Invalid("bad"), http.StatusBadRequest},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Conflict("dup"), http.StatusConflict},
		{apperr.Forbidden("no"), http.StatusForbidden},
		{apperr.Unavailable("down"), http.StatusServiceUnavailable},
		{apperr.Canceled("stopped"), 499},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		respondErr(rec, zap.NewNop(), c.err)
		require.Equal(t, c.want, rec.Code, c.err.Error())
	}
}

func TestRespondErr_IncludesFieldWhenPresent(t *testing.T) {
	rec := httptest.NewRecorder()
	respondErr(rec, zap.NewNop(), apperr.ConflictField("name taken", "name"))

	require.Contains(t, rec.Body.String(), `"field":"name"`)
}

func TestQueryInt_ParsesOrFallsBackToDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25", nil)
	require.Equal(t, 25, queryInt(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, 10, queryInt(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	require.Equal(t, 10, queryInt(req, "limit", 10))
}

func TestQueryBool_ParsesTrueFalseAndDefault(t *testing.T) {
	mk := func(raw string) *http.Request {
		u := &url.URL{RawQuery: raw}
		return &http.Request{URL: u}
	}

	require.True(t, queryBool(mk("flag=true"), "flag", false))
	require.True(t, queryBool(mk("flag=1"), "flag", false))
	require.False(t, queryBool(mk("flag=false"), "flag", true))
	require.False(t, queryBool(mk("flag=0"), "flag", true))
	require.True(t, queryBool(mk(""), "flag", true))
}
