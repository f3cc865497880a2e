package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/config"
	"inkwell/internal/service"
)

// CommentHandler serves comment threads and moderation.
type CommentHandler struct {
	comments service.CommentService
	cfg      *config.Config
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(comments service.CommentService, cfg *config.Config) *CommentHandler {
	return &CommentHandler{comments: comments, cfg: cfg}
}

// CommentRequest carries a comment body.
type CommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// ListByPost returns a post's thread, oldest first. ?page=-1 jumps to
// the last page.
func (h *CommentHandler) ListByPost(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	comments, total, page, err := h.comments.ListByPost(c.Request().Context(), postID, queryPageOrLast(c), h.cfg.CommentsPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pageResponse{Items: comments, Total: total, Page: page, PerPage: h.cfg.CommentsPerPage})
}

// Create publishes a comment on a post.
func (h *CommentHandler) Create(c echo.Context) error {
	postID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.Create(c.Request().Context(), CurrentUser(c), postID, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// Moderate lists every comment for moderators, newest first.
func (h *CommentHandler) Moderate(c echo.Context) error {
	page := queryPage(c)
	comments, total, err := h.comments.Moderate(c.Request().Context(), CurrentUser(c), page, h.cfg.CommentsPerPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, pageResponse{Items: comments, Total: total, Page: page, PerPage: h.cfg.CommentsPerPage})
}

// Enable clears the moderation gate on a comment.
func (h *CommentHandler) Enable(c echo.Context) error {
	return h.setDisabled(c, false)
}

// Disable hides a comment from display; it stays in storage.
func (h *CommentHandler) Disable(c echo.Context) error {
	return h.setDisabled(c, true)
}

func (h *CommentHandler) setDisabled(c echo.Context, disabled bool) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.comments.SetDisabled(c.Request().Context(), CurrentUser(c), id, disabled); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"disabled": disabled})
}
