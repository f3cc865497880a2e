package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/config"
	"inkwell/internal/service"
)

// UserHandler serves profiles and the social graph.
type UserHandler struct {
	users   service.UserService
	follows service.FollowService
	posts   service.PostService
	cfg     *config.Config
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users service.UserService, follows service.FollowService, posts service.PostService, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, follows: follows, posts: posts, cfg: cfg}
}

// UpdateProfileRequest carries self-service profile fields.
type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"max=64"`
	Location string `json:"location" validate:"max=64"`
	AboutMe  string `json:"about_me"`
}

// AdminUpdateRequest carries the administrator-editable fields.
type AdminUpdateRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Confirmed bool   `json:"confirmed"`
	RoleID    uint   `json:"role_id" validate:"required"`
	Name      string `json:"name" validate:"max=64"`
	Location  string `json:"location" validate:"max=64"`
	AboutMe   string `json:"about_me"`
}

// Get returns a public profile.
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":       user,
		"avatar_url": user.AvatarURL(secureRequest(c), 128),
	})
}

// Posts lists a user's posts, newest first.
func (h *UserHandler) Posts(c echo.Context) error {
	page := queryPage(c)
	posts, total, err := h.posts.ByAuthor(c.Request().Context(), c.Param("username"), page, h.cfg.PostsPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pageResponse{Items: posts, Total: total, Page: page, PerPage: h.cfg.PostsPerPage})
}

// UpdateProfile edits the caller's own profile.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user := CurrentUser(c)
	if err := h.users.UpdateProfile(c.Request().Context(), user, service.ProfileUpdate{
		Name:     req.Name,
		Location: req.Location,
		AboutMe:  req.AboutMe,
	}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "your profile has been updated", "user": user})
}

// AdminUpdate rewrites another user's profile, role included.
func (h *UserHandler) AdminUpdate(c echo.Context) error {
	targetID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req AdminUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.AdminUpdate(c.Request().Context(), CurrentUser(c), targetID, service.AdminProfileUpdate{
		Email:     req.Email,
		Username:  req.Username,
		Confirmed: req.Confirmed,
		RoleID:    req.RoleID,
		Name:      req.Name,
		Location:  req.Location,
		AboutMe:   req.AboutMe,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "the profile has been updated", "user": user})
}

// Follow creates a follow edge from the caller to :username.
func (h *UserHandler) Follow(c echo.Context) error {
	if err := h.follows.Follow(c.Request().Context(), CurrentUser(c), c.Param("username")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "you are now following " + c.Param("username")})
}

// Unfollow removes the edge.
func (h *UserHandler) Unfollow(c echo.Context) error {
	if err := h.follows.Unfollow(c.Request().Context(), CurrentUser(c), c.Param("username")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "you are not following " + c.Param("username") + " anymore"})
}

// Relationship reports both directions of the edge between the caller
// and :username.
func (h *UserHandler) Relationship(c echo.Context) error {
	viewer := CurrentUser(c)
	target, err := h.users.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return respondError(c, err)
	}
	following, err := h.follows.IsFollowing(c.Request().Context(), viewer.ID, target.ID)
	if err != nil {
		return respondError(c, err)
	}
	followedBy, err := h.follows.IsFollowedBy(c.Request().Context(), viewer.ID, target.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"is_following":   following,
		"is_followed_by": followedBy,
	})
}

// Followers lists who follows :username.
func (h *UserHandler) Followers(c echo.Context) error {
	page := queryPage(c)
	edges, total, err := h.follows.Followers(c.Request().Context(), c.Param("username"), page, h.cfg.FollowersPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pageResponse{Items: edges, Total: total, Page: page, PerPage: h.cfg.FollowersPerPage})
}

// Following lists who :username follows.
func (h *UserHandler) Following(c echo.Context) error {
	page := queryPage(c)
	edges, total, err := h.follows.Following(c.Request().Context(), c.Param("username"), page, h.cfg.FollowersPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pageResponse{Items: edges, Total: total, Page: page, PerPage: h.cfg.FollowersPerPage})
}
