package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/handler"
	"inkwell/internal/repository"
	"inkwell/internal/service"
)

func bearerToken(c echo.Context) string {
	return strings.TrimSpace(strings.TrimPrefix(
		c.Request().Header.Get(echo.HeaderAuthorization), "Bearer"))
}

// loadUser resolves the session claims into a full user record, stores
// it on the context and records last-seen activity. Runs after the JWT
// middleware has already rejected unauthenticated requests.
func loadUser(users repository.UserRepository, accounts service.AccountService, jwtService *auth.JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := jwtService.ValidateToken(bearerToken(c))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(handler.CurrentUserKey, user)

			// Best effort; a store hiccup must not fail the request.
			accounts.Ping(c.Request().Context(), user.ID)
			return next(c)
		}
	}
}

// optionalUser resolves the session user when the request carries a
// valid Authorization header, and leaves it anonymous otherwise.
// Public routes that personalize for logged-in callers, like the
// followed-posts feed, use this instead of loadUser.
func optionalUser(users repository.UserRepository, jwtService *auth.JWTService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return next(c)
			}
			claims, err := jwtService.ValidateToken(raw)
			if err != nil {
				return next(c)
			}
			if user, err := users.FindByID(c.Request().Context(), claims.UserID); err == nil {
				c.Set(handler.CurrentUserKey, user)
			}
			return next(c)
		}
	}
}

// requireConfirmed keeps unconfirmed accounts inside the auth flows.
func requireConfirmed(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := handler.CurrentUser(c)
		if user == nil || !user.Confirmed {
			return echo.NewHTTPError(http.StatusForbidden, "account not confirmed")
		}
		return next(c)
	}
}
