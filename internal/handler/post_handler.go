package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/config"
	"inkwell/internal/service"
)

// PostHandler serves the feeds and post authoring.
type PostHandler struct {
	posts service.PostService
	cfg   *config.Config
}

// NewPostHandler creates a new post handler.
func NewPostHandler(posts service.PostService, cfg *config.Config) *PostHandler {
	return &PostHandler{posts: posts, cfg: cfg}
}

// PostRequest carries a post body.
type PostRequest struct {
	Body string `json:"body" validate:"required"`
}

// Feed returns all posts, or followed-only with ?followed=1.
func (h *PostHandler) Feed(c echo.Context) error {
	page := queryPage(c)
	followedOnly := c.QueryParam("followed") == "1"
	posts, total, err := h.posts.Feed(c.Request().Context(), CurrentUser(c), followedOnly, page, h.cfg.PostsPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pageResponse{Items: posts, Total: total, Page: page, PerPage: h.cfg.PostsPerPage})
}

// Create publishes a new post.
func (h *PostHandler) Create(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.posts.Create(c.Request().Context(), CurrentUser(c), req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, post)
}

// Get returns a single post.
func (h *PostHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.posts.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// Update edits a post body; owner or administrator only.
func (h *PostHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.posts.Edit(c.Request().Context(), CurrentUser(c), id, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

// Delete removes a post; owner or administrator only.
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.posts.Delete(c.Request().Context(), CurrentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "the post has been deleted"})
}
