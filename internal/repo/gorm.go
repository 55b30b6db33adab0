package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/models"
	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	var row models.User
	tx := r.DB.WithContext(ctx).
		Where(models.User{Email: u.Email}).
		Attrs(*u).
		FirstOrCreate(&row)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExist
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrUserAlreadyExist
	}
	*u = row
	return nil
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *GormRepo) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"reset_token_hash":   tokenHash,
			"reset_token_expiry": expiry,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) GetUserByResetToken(ctx context.Context, tokenHash string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("reset_token_hash = ?", tokenHash).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdatePassword overwrites the hash and clears any pending reset token.
func (r *GormRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash":      passwordHash,
			"reset_token_hash":   nil,
			"reset_token_expiry": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) CreateRefresh(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindRefresh(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (r *GormRepo) DeleteRefresh(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteRefreshForUser(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
