package jwtmiddleware

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/tokens"
)

const ContextKey = "user"

// JWTMiddleware accepts "Authorization: Bearer <access token>" and stores the
// verified *tokens.AccessClaims under ContextKey.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.AccessClaimsFromToken(auth, secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("access_token_rejected", "status", http.StatusUnauthorized, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		},
	})
}

// Claims returns the claims stored by JWTMiddleware.
func Claims(c echo.Context) (*tokens.AccessClaims, bool) {
	claims, ok := c.Get(ContextKey).(*tokens.AccessClaims)
	return claims, ok && claims != nil
}
