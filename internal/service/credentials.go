package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/domain"
	"github.com/Skotchmaster/recommend_shop/internal/hash"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/models"
	"github.com/Skotchmaster/recommend_shop/internal/repo"
	"github.com/Skotchmaster/recommend_shop/internal/tokens"
	"github.com/google/uuid"
)

const DefaultResetTTL = time.Hour

// CredentialStore owns identity records. It never touches refresh tokens.
type CredentialStore struct {
	Users    UserRepository
	Now      func() time.Time
	ResetTTL time.Duration
}

func (s *CredentialStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CredentialStore) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTTL
}

func (s *CredentialStore) Create(ctx context.Context, email, password, username string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "credentials.create")

	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("create_user_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: pwHash,
		Status:       models.StatusActive,
		CreatedAt:    s.now(),
	}

	if err := s.Users.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("create_user_error", "status", 400, "reason", "email already registered")
			return nil, ErrConflict
		}
		l.Error("create_user_error", "status", 500, "error", err)
		return nil, err
	}
	return user, nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.Users.GetUserByEmail(ctx, email)
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.Users.GetUserByID(ctx, id)
}

func (s *CredentialStore) ValidateCredential(u *models.User, plaintext string) bool {
	return hash.CheckPassword(u.PasswordHash, plaintext)
}

// IssueResetToken persists the hash of a fresh reset token and returns the
// raw token for out-of-band delivery.
func (s *CredentialStore) IssueResetToken(ctx context.Context, id string) (string, time.Time, error) {
	token := tokens.NewOpaque()
	expiry := s.now().Add(s.resetTTL())

	if err := s.Users.SetResetToken(ctx, id, hash.Sha256Hex(token), expiry); err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

// ConsumeResetToken resolves a reset token to its owner. Unknown and expired
// tokens are reported the same way.
func (s *CredentialStore) ConsumeResetToken(ctx context.Context, token string) (*models.User, error) {
	user, err := s.Users.GetUserByResetToken(ctx, hash.Sha256Hex(token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}
	if user.ResetTokenExpiry == nil || s.now().After(*user.ResetTokenExpiry) {
		return nil, ErrInvalidResetToken
	}
	return user, nil
}

// UpdatePassword also clears the pending reset token, making it single use.
func (s *CredentialStore) UpdatePassword(ctx context.Context, id, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}
	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Users.UpdatePassword(ctx, id, pwHash)
}
