package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/recommend_shop/internal/db/dbtest"
	"github.com/Skotchmaster/recommend_shop/internal/events"
	"github.com/Skotchmaster/recommend_shop/internal/repo"
	"github.com/Skotchmaster/recommend_shop/internal/service"
	"github.com/Skotchmaster/recommend_shop/internal/tokens"
)

var testSecret = []byte("test-jwt-secret")

func newAuthServer(t *testing.T, limit float64, burst int) *echo.Echo {
	t.Helper()

	r := repo.NewGormRepo(dbtest.Open(t))
	svc := &service.AuthService{
		Credentials: &service.CredentialStore{Users: r},
		Tokens: &service.TokenIssuer{
			Tokens:    r,
			Users:     r,
			JWTSecret: testSecret,
		},
		Events:          events.Noop{},
		UserEventsTopic: "user_events",
	}
	return New(&Deps{
		AuthHandler: &AuthHTTP{Svc: svc},
		Checks:      map[string]Pinger{"store": r},
		JWTSecret:   testSecret,
		RateLimit:   limit,
		RateBurst:   burst,
	})
}

func do(t *testing.T, e *echo.Echo, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestAuthHTTP_RegisterLoginScenario(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)

	code, body := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)
	require.Equal(t, http.StatusCreated, code, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotEmpty(t, body["accessToken"])
	firstRefresh := body["refreshToken"].(string)
	require.NotEmpty(t, firstRefresh)

	code, body = do(t, e, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"Secret1!"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.NotEqual(t, firstRefresh, body["refreshToken"])

	claims, err := tokens.AccessClaimsFromToken(body["accessToken"].(string), testSecret)
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.UserID)
}

func TestAuthHTTP_RegisterFailures(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"missing field", `{"email":"a@b.com","password":"Secret1!"}`, "Email, password, and username are required"},
		{"bad email", `{"email":"nope","password":"Secret1!","username":"alice"}`, "Invalid email format"},
		{"weak password", `{"email":"a@b.com","password":"secret","username":"alice"}`, "Password must be at least 8 characters long and contain at least one number, one uppercase letter, and one special character"},
		{"bad json", `{"email":`, msgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, e, http.MethodPost, "/api/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, tt.msg, body["message"])
		})
	}

	code, _ := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)
	require.Equal(t, http.StatusCreated, code)
	code, body := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"bob"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email already registered", body["message"])
}

func TestAuthHTTP_LoginFailures(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)
	code, _ := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := do(t, e, http.MethodPost, "/api/auth/login", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email and password are required", body["message"])

	for _, b := range []string{
		`{"email":"a@b.com","password":"Wrong1!!"}`,
		`{"email":"ghost@b.com","password":"Secret1!"}`,
	} {
		code, body = do(t, e, http.MethodPost, "/api/auth/login", b)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Invalid credentials", body["message"])
	}
}

func TestAuthHTTP_RefreshAndLogout(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)
	_, reg := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)
	refresh := reg["refreshToken"].(string)

	code, body := do(t, e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotContains(t, body, "refreshToken")

	for i := 0; i < 2; i++ {
		code, body = do(t, e, http.MethodPost, "/api/auth/logout", `{"refreshToken":"`+refresh+`"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, msgLoggedOut, body["message"])
	}

	code, body = do(t, e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid refresh token", body["message"])

	code, _ = do(t, e, http.MethodPost, "/api/auth/refresh", `{}`)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthHTTP_ForgotPasswordShapeIsConstant(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)
	do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)

	codeKnown, known := do(t, e, http.MethodPost, "/api/auth/forgot-password", `{"email":"a@b.com"}`)
	codeUnknown, unknown := do(t, e, http.MethodPost, "/api/auth/forgot-password", `{"email":"ghost@b.com"}`)

	assert.Equal(t, http.StatusOK, codeKnown)
	assert.Equal(t, codeKnown, codeUnknown)
	assert.Equal(t, known["success"], unknown["success"])
	assert.Equal(t, known["message"], unknown["message"])
	assert.Equal(t, service.ResetRequestedMessage, known["message"])
	assert.Len(t, unknown["resetToken"], len(known["resetToken"].(string)))

	code, body := do(t, e, http.MethodPost, "/api/auth/forgot-password", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Email is required", body["message"])
}

func TestAuthHTTP_ResetPassword(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)
	_, reg := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)
	_, forgot := do(t, e, http.MethodPost, "/api/auth/forgot-password", `{"email":"a@b.com"}`)
	token := forgot["resetToken"].(string)

	code, body := do(t, e, http.MethodPost, "/api/auth/reset-password", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Reset token and new password are required", body["message"])

	code, body = do(t, e, http.MethodPost, "/api/auth/reset-password", `{"token":"`+token+`","newPassword":"Another1!"}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgResetComplete, body["message"])

	code, body = do(t, e, http.MethodPost, "/api/auth/reset-password", `{"token":"`+token+`","newPassword":"Another2!"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired reset token", body["message"])

	code, _ = do(t, e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+reg["refreshToken"].(string)+`"}`)
	assert.Equal(t, http.StatusUnauthorized, code, "reset revokes refresh tokens")

	code, _ = do(t, e, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"Another1!"}`)
	assert.Equal(t, http.StatusOK, code)
}

func TestAuthHTTP_Me(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)
	_, reg := do(t, e, http.MethodPost, "/api/auth/register", `{"email":"a@b.com","password":"Secret1!","username":"alice"}`)
	access := reg["accessToken"].(string)

	code, body := do(t, e, http.MethodGet, "/api/auth/me", "", echo.HeaderAuthorization, "Bearer "+access)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])

	code, _ = do(t, e, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	expired, err := tokens.SignAccessToken("someone", testSecret, time.Now().Add(-time.Hour), time.Now().Add(-time.Minute))
	require.NoError(t, err)
	code, _ = do(t, e, http.MethodGet, "/api/auth/me", "", echo.HeaderAuthorization, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, code)

	forged, err := tokens.SignAccessToken("someone", []byte("other"), time.Now(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	code, _ = do(t, e, http.MethodGet, "/api/auth/me", "", echo.HeaderAuthorization, "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthHTTP_LoginIsRateLimited(t *testing.T) {
	e := newAuthServer(t, 0.001, 2)

	for i := 0; i < 2; i++ {
		code, _ := do(t, e, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"Secret1!"}`)
		assert.Equal(t, http.StatusUnauthorized, code)
	}
	code, _ := do(t, e, http.MethodPost, "/api/auth/login", `{"email":"a@b.com","password":"Secret1!"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)

	code, _ = do(t, e, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, code, "refresh is not limited")
}

func TestHealth(t *testing.T) {
	e := newAuthServer(t, 1000, 1000)

	code, body := do(t, e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	code, _ = do(t, e, http.MethodGet, "/health/live/", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, e, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, code)
}
