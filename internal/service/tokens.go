package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/hash"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/models"
	"github.com/Skotchmaster/recommend_shop/internal/repo"
	"github.com/Skotchmaster/recommend_shop/internal/tokens"
	"github.com/Skotchmaster/recommend_shop/internal/transport"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenIssuer owns refresh-token records and only reads identity records.
type TokenIssuer struct {
	Tokens     RefreshTokenRepository
	Users      UserReader
	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func (t *TokenIssuer) now() time.Time {
	if t.Now != nil {
		return t.Now().UTC()
	}
	return time.Now().UTC()
}

func (t *TokenIssuer) accessTTL() time.Duration {
	if t.AccessTTL > 0 {
		return t.AccessTTL
	}
	return DefaultAccessTTL
}

func (t *TokenIssuer) refreshTTL() time.Duration {
	if t.RefreshTTL > 0 {
		return t.RefreshTTL
	}
	return DefaultRefreshTTL
}

func (t *TokenIssuer) signAccess(userID string) (*transport.AccessResult, error) {
	now := t.now()
	exp := now.Add(t.accessTTL())
	access, err := tokens.SignAccessToken(userID, t.JWTSecret, now, exp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &transport.AccessResult{AccessToken: access, AccessExp: exp}, nil
}

// Issue creates one session: a stateless access token and a stored refresh
// token. A user may hold any number of sessions.
func (t *TokenIssuer) Issue(ctx context.Context, userID string) (*transport.TokenPair, error) {
	access, err := t.signAccess(userID)
	if err != nil {
		return nil, err
	}

	now := t.now()
	refresh := tokens.NewOpaque()
	record := &models.RefreshToken{
		TokenHash: hash.Sha256Hex(refresh),
		UserID:    userID,
		ExpiresAt: now.Add(t.refreshTTL()),
		CreatedAt: now,
	}
	if err := t.Tokens.CreateRefresh(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &transport.TokenPair{
		AccessToken:  access.AccessToken,
		RefreshToken: refresh,
		AccessExp:    access.AccessExp,
		RefreshExp:   record.ExpiresAt,
	}, nil
}

// Lookup resolves a raw refresh token. An expired record is deleted on the
// way out and reported as invalid.
func (t *TokenIssuer) Lookup(ctx context.Context, refreshToken string) (*models.RefreshToken, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	tokenHash := hash.Sha256Hex(refreshToken)

	record, err := t.Tokens.FindRefresh(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if record.Expired(t.now()) {
		if err := t.Tokens.DeleteRefresh(ctx, tokenHash); err != nil {
			logging.FromContext(ctx).Warn("refresh_cleanup_failed", "reason", "cannot delete expired token", "error", err)
		}
		return nil, ErrInvalidRefreshToken
	}
	return record, nil
}

// Refresh mints a new access token. The refresh token itself is not rotated
// and stays valid until it expires or is revoked.
func (t *TokenIssuer) Refresh(ctx context.Context, refreshToken string) (*transport.AccessResult, error) {
	record, err := t.Lookup(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if _, err := t.Users.GetUserByID(ctx, record.UserID); err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
		if err := t.Tokens.DeleteRefresh(ctx, record.TokenHash); err != nil {
			logging.FromContext(ctx).Warn("refresh_cleanup_failed", "reason", "cannot delete dangling token", "error", err)
		}
		return nil, ErrUserNotFound
	}

	return t.signAccess(record.UserID)
}

func (t *TokenIssuer) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return t.Tokens.DeleteRefresh(ctx, hash.Sha256Hex(refreshToken))
}

func (t *TokenIssuer) RevokeAll(ctx context.Context, userID string) error {
	return t.Tokens.DeleteRefreshForUser(ctx, userID)
}

func (t *TokenIssuer) ParseAccessToken(token string) (*tokens.AccessClaims, error) {
	return tokens.AccessClaimsFromToken(token, t.JWTSecret)
}
