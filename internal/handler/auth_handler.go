package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"inkwell/internal/captcha"
	"inkwell/internal/service"
)

// AuthHandler handles registration, login and the token-gated
// lifecycle endpoints.
type AuthHandler struct {
	accounts service.AccountService
	codes    *captcha.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts service.AccountService, codes *captcha.Service) *AuthHandler {
	return &AuthHandler{accounts: accounts, codes: codes}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a login request. CodeID/Code carry the
// visual verify code issued by GET /auth/code.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	CodeID   string `json:"code_id" validate:"required"`
	Code     string `json:"code" validate:"required"`
}

// TokenRequest carries a lifecycle token back to the server.
type TokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ChangePasswordRequest represents an authenticated password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

// ChangeEmailRequest starts an email change.
type ChangeEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetRequest asks for a password-reset token by email.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirmRequest completes a reset. The email must be resubmitted
// and match the token subject.
type ResetConfirmRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// Code issues a fresh visual verify code for the login form.
func (h *AuthHandler) Code(c echo.Context) error {
	id, image, err := h.codes.Generate()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"code_id": id, "image": image})
}

// Register creates an unconfirmed account and emails a confirmation token.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.accounts.Register(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "a confirmation email has been sent to you",
		"user":    user,
	})
}

// Login authenticates and returns a session token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, user, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password, req.CodeID, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"token": session, "user": user})
}

// Confirm completes account confirmation for the authenticated user.
func (h *AuthHandler) Confirm(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.Confirm(c.Request().Context(), CurrentUser(c), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "you have confirmed your account"})
}

// ResendConfirmation mails a fresh confirmation token.
func (h *AuthHandler) ResendConfirmation(c echo.Context) error {
	if err := h.accounts.ResendConfirmation(c.Request().Context(), CurrentUser(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "a new confirmation email has been sent to you"})
}

// ChangePassword rotates the password after checking the old one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.ChangePassword(c.Request().Context(), CurrentUser(c), req.OldPassword, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "your password has been updated"})
}

// ChangeEmail starts an email change; the token goes to the new address.
func (h *AuthHandler) ChangeEmail(c echo.Context) error {
	var req ChangeEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.RequestEmailChange(c.Request().Context(), CurrentUser(c), req.NewEmail, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "a confirmation email has been sent to your new address"})
}

// ConfirmEmailChange completes the email change.
func (h *AuthHandler) ConfirmEmailChange(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.ConfirmEmailChange(c.Request().Context(), CurrentUser(c), req.Token); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "your email address has been updated"})
}

// RequestReset mails a reset token. The response never reveals whether
// the address exists.
func (h *AuthHandler) RequestReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "an email with reset instructions has been sent to you"})
}

// ConfirmReset sets a new password from a reset token.
func (h *AuthHandler) ConfirmReset(c echo.Context) error {
	var req ResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.accounts.ResetPassword(c.Request().Context(), req.Email, req.Token, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "your password has been updated"})
}
