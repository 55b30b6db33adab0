package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/recommend_shop/internal/domain"
	"github.com/Skotchmaster/recommend_shop/internal/hash"
	"github.com/Skotchmaster/recommend_shop/internal/logging"
	"github.com/Skotchmaster/recommend_shop/internal/models"
	"github.com/Skotchmaster/recommend_shop/internal/repo"
	"github.com/Skotchmaster/recommend_shop/internal/tokens"
	"github.com/Skotchmaster/recommend_shop/internal/transport"
)

const ResetRequestedMessage = "If your email is registered, you will receive a password reset link"

const (
	EventUserRegistered         = "user_registered"
	EventUserLoggedIn           = "user_logged_in"
	EventUserLoggedOut          = "user_logged_out"
	EventPasswordResetRequested = "password_reset_requested"
	EventPasswordResetCompleted = "password_reset_completed"
)

type UserEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	ResetToken string    `json:"resetToken,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// DefaultEventTimeout bounds how long a request waits on the event broker.
const DefaultEventTimeout = 500 * time.Millisecond

type AuthService struct {
	Credentials     *CredentialStore
	Tokens          *TokenIssuer
	Events          EventPublisher
	UserEventsTopic string
	EventTimeout    time.Duration
}

type AuthResult struct {
	User   *models.User
	Tokens *transport.TokenPair
}

type ResetRequest struct {
	Message    string
	ResetToken string
}

func (s *AuthService) publish(ctx context.Context, ev UserEvent) {
	if s.Events == nil {
		return
	}
	timeout := s.EventTimeout
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	pubCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ev.OccurredAt = s.Credentials.now()
	if err := s.Events.PublishEvent(pubCtx, s.UserEventsTopic, ev.UserID, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "event", ev.Type, "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if err := domain.Required("Email, password, and username are required", email, password, username); err != nil {
		return nil, err
	}

	user, err := s.Credentials.Create(ctx, email, password, username)
	if err != nil {
		return nil, err
	}

	pair, err := s.Tokens.Issue(ctx, user.ID)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.publish(ctx, UserEvent{Type: EventUserRegistered, UserID: user.ID, Email: user.Email})
	l.Info("register_successful", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if err := domain.Required("Email and password are required", email, password); err != nil {
		return nil, err
	}

	user, err := s.Credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.BurnCompare(password)
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}

	if !s.Credentials.ValidateCredential(user, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(ctx, user.ID)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue tokens", "error", err)
		return nil, err
	}

	s.publish(ctx, UserEvent{Type: EventUserLoggedIn, UserID: user.ID})
	l.Info("login_successful", "user_id", user.ID)
	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*transport.AccessResult, error) {
	res, err := s.Tokens.Refresh(ctx, refreshToken)
	if err != nil {
		l := logging.FromContext(ctx).With("svc", "auth.refresh")
		if errors.Is(err, ErrInvalidRefreshToken) || errors.Is(err, ErrUserNotFound) {
			l.Warn("refresh_failed", "status", 401, "error", err)
		} else {
			l.Error("refresh_failed", "status", 500, "error", err)
		}
		return nil, err
	}
	return res, nil
}

// LogOut is idempotent: unknown or empty tokens succeed.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	var userID string
	if record, err := s.Tokens.Lookup(ctx, refreshToken); err == nil {
		userID = record.UserID
	}

	if err := s.Tokens.Revoke(ctx, refreshToken); err != nil {
		logging.FromContext(ctx).Error("logout_failed", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}

	if userID != "" {
		s.publish(ctx, UserEvent{Type: EventUserLoggedOut, UserID: userID})
	}
	return nil
}

// ForgotPassword answers identically whether or not the email is known.
// For an unknown email the returned token is random and never stored.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*ResetRequest, error) {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	if err := domain.Required("Email is required", email); err != nil {
		return nil, err
	}

	user, err := s.Credentials.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return &ResetRequest{Message: ResetRequestedMessage, ResetToken: tokens.NewOpaque()}, nil
		}
		l.Error("forgot_password_error", "status", 500, "error", err)
		return nil, err
	}

	token, _, err := s.Credentials.IssueResetToken(ctx, user.ID)
	if err != nil {
		l.Error("forgot_password_error", "status", 500, "reason", "cannot store reset token", "error", err)
		return nil, err
	}

	s.publish(ctx, UserEvent{Type: EventPasswordResetRequested, UserID: user.ID, Email: user.Email, ResetToken: token})
	return &ResetRequest{Message: ResetRequestedMessage, ResetToken: token}, nil
}

// ResetPassword consumes the reset token, stores the new password and ends
// every session of the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	if err := domain.Required("Reset token and new password are required", token, newPassword); err != nil {
		return err
	}
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.Credentials.ConsumeResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			l.Warn("reset_password_failed", "status", 400, "reason", "invalid or expired reset token")
		} else {
			l.Error("reset_password_failed", "status", 500, "error", err)
		}
		return err
	}

	if err := s.Credentials.UpdatePassword(ctx, user.ID, newPassword); err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "cannot update password", "error", err)
		return err
	}

	if err := s.Tokens.RevokeAll(ctx, user.ID); err != nil {
		l.Error("reset_password_failed", "status", 500, "reason", "cannot revoke sessions", "error", err)
		return err
	}

	s.publish(ctx, UserEvent{Type: EventPasswordResetCompleted, UserID: user.ID})
	l.Info("reset_password_successful", "user_id", user.ID)
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Credentials.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}
