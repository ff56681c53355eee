package handler

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"schools24/internal/auth"
	"schools24/internal/authz"
	"schools24/internal/errors"
	"schools24/internal/service"
)

// JWTConfig verifies bearer tokens with the JWT service and stores the claims
// on the echo context.
func JWTConfig(jwtService *auth.JWTService) echojwt.Config {
	return echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return serviceError(errors.ErrTokenInvalid)
		},
	}
}

// ResolveActor loads the user behind the verified claims and puts the actor
// on the request context for the services.
func ResolveActor(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return serviceError(errors.ErrTokenInvalid)
			}
			user, err := authService.Authenticate(c.Request().Context(), claims)
			if err != nil {
				return serviceError(err)
			}
			c.Set(currentUserKey, user)
			ctx := authz.WithActor(c.Request().Context(), authz.ActorFor(user))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
