package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const testSecret = "test-secret"

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID       int64  `json:"user_id"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindWithRoles(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

var _ repository.UserRepository = (*UserRepoMock)(nil)

func mustMakeJWT(t *testing.T, secret string, sub int64, role string, tv int, method jwt.SigningMethod) string {
	t.Helper()

	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"tv":   tv,
		"iat":  1,
		"exp":  9999999999,
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return s
}

func whoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, mwOKResponse{
		UserID:       c.Get(middleware.CtxUserIDKey).(int64),
		Role:         c.Get(middleware.CtxUserRoleKey).(string),
		TokenVersion: c.Get(middleware.CtxTokenVersionKey).(int),
	})
}

func runRequest(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT_Rejects(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 1, "role": "USER", "tv": 0, "exp": 1})
	expiredToken, _ := expired.SignedString([]byte(testSecret))

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "bad scheme", header: "Token abc.def.ghi"},
		{name: "empty bearer", header: "Bearer   "},
		{name: "wrong secret", header: "Bearer " + mustMakeJWT(t, "other", 1, "USER", 0, jwt.SigningMethodHS256)},
		{name: "wrong alg", header: "Bearer " + mustMakeJWT(t, testSecret, 1, "USER", 0, jwt.SigningMethodHS512)},
		{name: "expired", header: "Bearer " + expiredToken},
		{name: "no role", header: "Bearer " + mustMakeJWT(t, testSecret, 1, "", 0, jwt.SigningMethodHS256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/protected", whoAmI, middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

			rec := runRequest(e, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body mwErrorResponse
			_ = json.NewDecoder(rec.Body).Decode(&body)
			assert.Equal(t, "unauthorized", body.Error)
		})
	}
}

func TestAuthJWT_SetsContext(t *testing.T) {
	e := echo.New()
	e.GET("/protected", whoAmI, middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

	rec := runRequest(e, "Bearer "+mustMakeJWT(t, testSecret, 42, "ADMIN", 3, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body mwOKResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, int64(42), body.UserID)
	assert.Equal(t, "ADMIN", body.Role)
	assert.Equal(t, 3, body.TokenVersion)
}

// Test: token_versionが上がった古いトークンは401
func TestTokenVersionGuard(t *testing.T) {
	tests := []struct {
		name   string
		user   *model.User
		err    error
		status int
	}{
		{name: "match", user: &model.User{ID: 1, TokenVersion: 2, IsActive: true}, status: http.StatusOK},
		{name: "stale token", user: &model.User{ID: 1, TokenVersion: 3, IsActive: true}, status: http.StatusUnauthorized},
		{name: "inactive user", user: &model.User{ID: 1, TokenVersion: 2, IsActive: false}, status: http.StatusUnauthorized},
		{name: "missing user", user: nil, status: http.StatusUnauthorized},
		{name: "db error", err: errors.New("conn refused"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			users.On("FindByID", mock.Anything, int64(1)).Return(tt.user, tt.err)

			e := echo.New()
			e.GET("/protected", whoAmI,
				middleware.AuthJWT(config.Config{JWTSecret: testSecret}),
				middleware.TokenVersionGuard(users),
			)

			rec := runRequest(e, "Bearer "+mustMakeJWT(t, testSecret, 1, "USER", 2, jwt.SigningMethodHS256))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAdminRoleGuard(t *testing.T) {
	e := echo.New()
	e.GET("/protected", whoAmI,
		middleware.AuthJWT(config.Config{JWTSecret: testSecret}),
		middleware.AdminRoleGuard(),
	)

	rec := runRequest(e, "Bearer "+mustMakeJWT(t, testSecret, 1, "USER", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = runRequest(e, "Bearer "+mustMakeJWT(t, testSecret, 1, "ADMIN", 0, jwt.SigningMethodHS256))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecovery(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Recovery(zerolog.Nop()))
	e.GET("/protected", func(c echo.Context) error { panic("boom") })

	rec := runRequest(e, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body mwErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	assert.Equal(t, "internal server error", body.Error)
}
