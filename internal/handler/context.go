package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"inkwell/internal/errors"
	"inkwell/internal/model"
)

// CurrentUserKey is where the user-loading middleware stores the
// resolved user on the request context.
const CurrentUserKey = "currentUser"

// CurrentUser returns the authenticated user, or nil for anonymous
// requests.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(CurrentUserKey).(*model.User)
	return u
}

// respondError maps a domain error onto the HTTP surface.
func respondError(c echo.Context, err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// queryPage reads ?page= defaulting to 1; values below 1 are clamped
// so the echoed page always matches what was served.
func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// queryPageOrLast is queryPage except -1 passes through, meaning jump
// to the last page. Only the comment thread supports that.
func queryPageOrLast(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil {
		return 1
	}
	if page == -1 || page >= 1 {
		return page
	}
	return 1
}

// pathID reads a numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// secureRequest reports whether the request arrived over TLS, directly
// or behind a terminating proxy. Selects the avatar URL scheme.
func secureRequest(c echo.Context) bool {
	if c.IsTLS() {
		return true
	}
	return c.Request().Header.Get("X-Forwarded-Proto") == "https"
}

// pageResponse is the envelope for paginated listings.
type pageResponse struct {
	Items   interface{} `json:"items"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}
