package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/handler"
	"inkwell/internal/repository"
	"inkwell/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	users repository.UserRepository,
	jwtService *auth.JWTService,
	accountService service.AccountService,
	roleService service.RoleService,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	commentHandler *handler.CommentHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api")

	// Public routes
	api.GET("/auth/code", authHandler.Code)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/reset", authHandler.RequestReset)
	api.POST("/auth/reset/confirm", authHandler.ConfirmReset)

	// The feed is public but personalizes: a valid session token makes
	// ?followed=1 serve the caller's followed-posts feed.
	api.GET("/posts", postHandler.Feed, optionalUser(users, jwtService))
	api.GET("/posts/:id", postHandler.Get)
	api.GET("/posts/:id/comments", commentHandler.ListByPost)
	api.GET("/users/:username", userHandler.Get)
	api.GET("/users/:username/posts", userHandler.Posts)
	api.GET("/users/:username/followers", userHandler.Followers)
	api.GET("/users/:username/following", userHandler.Following)

	// Secured routes (require a valid session token)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.SecretKey),
		TokenLookup: "header:" + echo.HeaderAuthorization,
	}), loadUser(users, accountService, jwtService))

	secured.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.CurrentUser(c))
	})

	// Account lifecycle stays reachable while unconfirmed
	secured.POST("/auth/confirm", authHandler.Confirm)
	secured.POST("/auth/confirm/resend", authHandler.ResendConfirmation)
	secured.POST("/auth/change-password", authHandler.ChangePassword)
	secured.POST("/auth/change-email", authHandler.ChangeEmail)
	secured.POST("/auth/change-email/confirm", authHandler.ConfirmEmailChange)

	// Everything else requires a confirmed account
	confirmed := secured.Group("", requireConfirmed)

	confirmed.POST("/posts", postHandler.Create)
	confirmed.PUT("/posts/:id", postHandler.Update)
	confirmed.DELETE("/posts/:id", postHandler.Delete)
	confirmed.POST("/posts/:id/comments", commentHandler.Create)

	confirmed.PUT("/profile", userHandler.UpdateProfile)
	confirmed.PUT("/users/:id", userHandler.AdminUpdate)
	confirmed.POST("/users/:username/follow", userHandler.Follow)
	confirmed.DELETE("/users/:username/follow", userHandler.Unfollow)
	confirmed.GET("/users/:username/relationship", userHandler.Relationship)

	confirmed.GET("/moderate/comments", commentHandler.Moderate)
	confirmed.PATCH("/comments/:id/enable", commentHandler.Enable)
	confirmed.PATCH("/comments/:id/disable", commentHandler.Disable)

	confirmed.GET("/roles", func(c echo.Context) error {
		if !handler.CurrentUser(c).IsAdministrator() {
			return echo.NewHTTPError(http.StatusForbidden, "forbidden")
		}
		roles, err := roleService.List(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
		return c.JSON(http.StatusOK, roles)
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
