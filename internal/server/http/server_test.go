package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

func serve(t *testing.T, e *echo.Echo, method, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestEchoRoutesAndErrors(t *testing.T) {
	e := NewEcho(config.Config{}, nil, zap.NewNop())

	code, body := serve(t, e, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["data"].(map[string]any)["status"])

	code, body = serve(t, e, http.MethodGet, "/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not_found", body["error"].(map[string]any)["kind"])

	e.GET("/panic", func(echo.Context) error { panic("boom") })
	code, _ = serve(t, e, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestFromEcho(t *testing.T) {
	tests := []struct {
		err  error
		kind errorbank.Kind
	}{
		{echo.NewHTTPError(http.StatusMethodNotAllowed), errorbank.KindBadRequest},
		{echo.NewHTTPError(http.StatusUnauthorized, "token expired"), errorbank.KindUnauthorized},
		{echo.NewHTTPError(http.StatusForbidden), errorbank.KindForbidden},
		{echo.NewHTTPError(http.StatusTeapot), errorbank.KindInternal},
		{errorbank.Conflict("taken"), errorbank.KindConflict},
		{errors.New("raw"), errorbank.KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, fromEcho(tt.err).Kind(), tt.err.Error())
	}
	assert.Equal(t, "token expired", fromEcho(echo.NewHTTPError(http.StatusUnauthorized, "token expired")).Message())
}
