package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/librishq/libris/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HealthEndpoint(t *testing.T) {
	srv := New(testutils.GetTestConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestValidator(t *testing.T) {
	srv := New(testutils.GetTestConfig(), nil)

	type payload struct {
		Name string `validate:"required"`
	}

	t.Run("valid struct", func(t *testing.T) {
		err := srv.Echo().Validator.Validate(&payload{Name: "ok"})
		require.NoError(t, err)
	})

	t.Run("invalid struct maps to 400", func(t *testing.T) {
		err := srv.Echo().Validator.Validate(&payload{})

		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
}
