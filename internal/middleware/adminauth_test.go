package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equisoins/clover/internal/appcontext"
)

func callAdminAuth(t *testing.T, enabled bool, token, header string) (error, string) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var label string
	handler := AdminAuth(enabled, token)(func(c echo.Context) error {
		label = appcontext.GetAdminLabel(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	return handler(c), label
}

func TestAdminAuthAcceptsValidToken(t *testing.T) {
	err, label := callAdminAuth(t, true, "secret", "Bearer secret")
	require.NoError(t, err)
	assert.Equal(t, "token-auth", label)
}

func TestAdminAuthRejectsInvalidToken(t *testing.T) {
	err, _ := callAdminAuth(t, true, "secret", "Bearer wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
}

func TestAdminAuthRejectsMissingHeader(t *testing.T) {
	err, _ := callAdminAuth(t, true, "secret", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, httperror.GetStatusCode(err))
}

func TestAdminAuthFailsClosedWithoutToken(t *testing.T) {
	err, _ := callAdminAuth(t, true, "", "Bearer anything")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, httperror.GetStatusCode(err))
}

func TestAdminAuthDisabledPassesThrough(t *testing.T) {
	err, label := callAdminAuth(t, false, "", "")
	require.NoError(t, err)
	assert.Equal(t, "dev", label)
}
