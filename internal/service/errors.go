package service

import (
	"errors"

	"github.com/Skotchmaster/recommend_shop/internal/domain"
)

var (
	ErrValidation          = domain.ErrValidation
	ErrConflict            = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
)
