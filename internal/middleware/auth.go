package middleware

import (
	"net/http"
	"strings"

	"chat_auth/internal/lib/jwt"

	"github.com/labstack/echo/v4"
)

const ClaimsKey = "claims"

type TokenVerifier interface {
	Verify(signed string) (*jwt.Claims, error)
}

// BearerAuth rejects requests without a valid access token in the
// Authorization header and stores the verified claims under ClaimsKey.
func BearerAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return c.NoContent(http.StatusUnauthorized)
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}

			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

// ClaimsFrom returns the claims set by BearerAuth.
func ClaimsFrom(c echo.Context) (*jwt.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwt.Claims)
	return claims, ok
}
