package authz

import (
	"github.com/labstack/echo/v4"

	"schools24/internal/errors"
)

// RequireCapability rejects requests whose actor's role does not grant op.
// Scope checks happen later, in the services, once the resource is loaded.
func RequireCapability(op Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c.Request().Context())
			var err error
			switch {
			case !ok:
				err = errors.ErrTokenInvalid
			case !actor.IsSystem() && !Default.Can(actor.Role, op):
				err = errors.Forbidden("insufficient permissions")
			}
			if err != nil {
				httpErr := errors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			return next(c)
		}
	}
}
