package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", reg.User.Email)

	login, err := f.Auth.Login(ctx, "a@b.com", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEqual(t, reg.Tokens.RefreshToken, login.Tokens.RefreshToken)

	b, err := json.Marshal(login.User)
	require.NoError(t, err)
	assert.NotContains(t, string(b), login.User.PasswordHash)
	assert.NotContains(t, string(b), "password")

	assert.Equal(t, []string{EventUserRegistered, EventUserLoggedIn}, f.Events.Types())
	assert.Equal(t, "user_events", f.Events.events[0].Topic)
	assert.Equal(t, reg.User.ID, f.Events.events[0].Key)
}

func TestAuthService_Register_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.Auth.Register(ctx, "a@b.com", "", "alice")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Email, password, and username are required", err.Error())

	_, err = f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)
	_, err = f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)

	res, err := f.Auth.Login(ctx, "a@b.com", "Wrong1!!")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err = f.Auth.Login(ctx, "nobody@b.com", "Secret1!")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.Auth.Login(ctx, "", "Secret1!")
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, f.Repo.DB.Table("refresh_tokens").Count(&count).Error)
	assert.EqualValues(t, 1, count, "failed logins issue no tokens")
}

func TestAuthService_LogoutThenRefreshFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)

	_, err = f.Auth.Refresh(ctx, reg.Tokens.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, f.Auth.LogOut(ctx, reg.Tokens.RefreshToken))
	require.NoError(t, f.Auth.LogOut(ctx, reg.Tokens.RefreshToken))
	require.NoError(t, f.Auth.LogOut(ctx, ""))

	_, err = f.Auth.Refresh(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Contains(t, f.Events.Types(), EventUserLoggedOut)
}

func TestAuthService_ForgotPassword_NoEnumeration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)

	known, err := f.Auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)
	unknown, err := f.Auth.ForgotPassword(ctx, "nobody@b.com")
	require.NoError(t, err)

	assert.Equal(t, known.Message, unknown.Message)
	assert.Len(t, unknown.ResetToken, len(known.ResetToken))

	err = f.Auth.ResetPassword(ctx, unknown.ResetToken, "Another1!")
	assert.ErrorIs(t, err, ErrInvalidResetToken, "decoy tokens are never stored")

	_, err = f.Auth.ForgotPassword(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	types := f.Events.Types()
	assert.Equal(t, EventPasswordResetRequested, types[len(types)-1])
	assert.Equal(t, known.ResetToken, f.Events.events[len(types)-1].Event.ResetToken)
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)
	second, err := f.Auth.Login(ctx, "a@b.com", "Secret1!")
	require.NoError(t, err)

	req, err := f.Auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)

	assert.ErrorIs(t, f.Auth.ResetPassword(ctx, req.ResetToken, "weak"), ErrValidation)
	assert.ErrorIs(t, f.Auth.ResetPassword(ctx, "", "Another1!"), ErrValidation)

	require.NoError(t, f.Auth.ResetPassword(ctx, req.ResetToken, "Another1!"))
	assert.ErrorIs(t, f.Auth.ResetPassword(ctx, req.ResetToken, "Third333!"), ErrInvalidResetToken)

	for _, tok := range []string{reg.Tokens.RefreshToken, second.Tokens.RefreshToken} {
		_, err := f.Auth.Refresh(ctx, tok)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	}

	_, err = f.Auth.Login(ctx, "a@b.com", "Secret1!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.Auth.Login(ctx, "a@b.com", "Another1!")
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)
	req, err := f.Auth.ForgotPassword(ctx, "a@b.com")
	require.NoError(t, err)

	f.Clock.Advance(time.Hour + time.Minute)
	err = f.Auth.ResetPassword(ctx, req.ResetToken, "Another1!")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestAuthService_Me(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)

	u, err := f.Auth.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.Auth.Me(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

// stalledBroker blocks every publish until the caller gives up.
type stalledBroker struct {
	calls int
}

func (b *stalledBroker) PublishEvent(ctx context.Context, _, _ string, _ any) error {
	b.calls++
	<-ctx.Done()
	return ctx.Err()
}

func TestAuthService_StalledBrokerDoesNotHoldRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broker := &stalledBroker{}
	f.Auth.Events = broker
	f.Auth.EventTimeout = 50 * time.Millisecond

	start := time.Now()
	reg, err := f.Auth.Register(ctx, "a@b.com", "Secret1!", "alice")
	require.NoError(t, err)
	_, err = f.Auth.Login(ctx, "a@b.com", "Secret1!")
	require.NoError(t, err)
	require.NoError(t, f.Auth.LogOut(ctx, reg.Tokens.RefreshToken))

	assert.Equal(t, 3, broker.calls)
	assert.Less(t, time.Since(start), 3*time.Second)
}
