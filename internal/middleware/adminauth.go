package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/equisoins/clover/internal/appcontext"
)

const adminLabel = "token-auth"

// AdminAuth guards the back-office routes with a shared bearer token.
// When disabled (local development) requests pass through with a fixed
// admin label so audit rows stay attributable.
func AdminAuth(enabled bool, token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if !enabled {
				c.SetRequest(c.Request().WithContext(appcontext.SetAdminLabel(ctx, "dev")))
				return next(c)
			}

			if token == "" {
				return httperror.NewHTTPError(http.StatusServiceUnavailable, "admin auth is enabled but no token is configured")
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			presented := strings.TrimPrefix(header, "Bearer ")
			if presented == header || presented == "" {
				return httperror.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				return httperror.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.SetRequest(c.Request().WithContext(appcontext.SetAdminLabel(ctx, adminLabel)))
			return next(c)
		}
	}
}
