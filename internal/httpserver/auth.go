package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/recommend_shop/internal/jwtmiddleware"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/service"
	"github.com/Skotchmaster/recommend_shop/internal/transport"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgInternal      = "Internal server error"
	msgLoggedOut     = "Logged out successfully"
	msgResetComplete = "Password has been reset successfully"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// authError maps service errors onto HTTP errors. Unknown errors are logged
// and hidden behind a generic 500.
func authError(c echo.Context, event string, err error) error {
	l := logging.FromContext(c.Request().Context())

	var (
		code int
		msg  string
	)
	switch {
	case errors.Is(err, service.ErrValidation):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrConflict):
		code, msg = http.StatusBadRequest, "Email already registered"
	case errors.Is(err, service.ErrInvalidCredentials):
		code, msg = http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrInvalidRefreshToken):
		code, msg = http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, service.ErrUserNotFound):
		code, msg = http.StatusUnauthorized, "User not found"
	case errors.Is(err, service.ErrInvalidResetToken):
		code, msg = http.StatusBadRequest, "Invalid or expired reset token"
	default:
		l.Error(event, "status", http.StatusInternalServerError, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}

	l.Warn(event, "status", code, "reason", msg)
	return echo.NewHTTPError(code, msg)
}

func bindError(c echo.Context, event string, err error) error {
	logging.FromContext(c.Request().Context()).Warn(event, "status", http.StatusBadRequest, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody)
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, "register_error", err)
	}

	res, err := h.Svc.Register(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		return authError(c, "register_failed", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user":         res.User,
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, "login_error", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return authError(c, "login_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":         res.User,
		"accessToken":  res.Tokens.AccessToken,
		"refreshToken": res.Tokens.RefreshToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, "refresh_error", err)
	}

	res, err := h.Svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return authError(c, "refresh_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": res.AccessToken})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, "logout_error", err)
	}

	if err := h.Svc.LogOut(ctx, req.RefreshToken); err != nil {
		return authError(c, "logout_failed", err)
	}

	logging.FromContext(ctx).Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": msgLoggedOut})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	var req transport.EmailRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, "forgot_password_error", err)
	}

	res, err := h.Svc.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return authError(c, "forgot_password_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    res.Message,
		"resetToken": res.ResetToken,
	})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, "reset_password_error", err)
	}

	if err := h.Svc.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return authError(c, "reset_password_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": msgResetComplete,
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	claims, ok := jwtmiddleware.Claims(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}

	user, err := h.Svc.Me(c.Request().Context(), claims.UserID)
	if err != nil {
		return authError(c, "me_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}
