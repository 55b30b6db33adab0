package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/models"
)

type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// UserRepository is implemented by repo.GormRepo and repo.ESRepo. Lookups
// report repo.ErrNotFound and creation reports repo.ErrUserAlreadyExist.
type UserRepository interface {
	UserReader
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error
	GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type RefreshTokenRepository interface {
	CreateRefresh(ctx context.Context, t *models.RefreshToken) error
	FindRefresh(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	DeleteRefresh(ctx context.Context, tokenHash string) error
	DeleteRefreshForUser(ctx context.Context, userID string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}
