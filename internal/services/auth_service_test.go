package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/tokenstore"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService(repo *MockUserRepository) *services.AuthService {
	return services.NewAuthService(repo, tokenstore.NewMemoryStore(), testJWTSecret, time.Hour)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	// Test successful registration
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "test@example.com" &&
			u.ID != "" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")) == nil
	})).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, " Test@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEqual(t, "password123", user.Password)
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser(ctx, "test@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	assert.Contains(t, err.Error(), "email 'test@example.com'")
	mockRepo.AssertExpectations(t)

	// Test concurrent registration caught by the unique index
	mockRepo.On("GetByEmail", ctx, "race@example.com").Return(nil, repositories.ErrNotFound).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate).Once()
	_, err = authService.RegisterUser(ctx, "race@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrEmailTaken)
	mockRepo.AssertExpectations(t)

	// Test lookup failure
	mockRepo.On("GetByEmail", ctx, "down@example.com").Return(nil, errors.New("connection refused")).Once()
	_, err = authService.RegisterUser(ctx, "down@example.com", "password123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrEmailTaken)
	assert.Contains(t, err.Error(), "connection refused")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	user := &models.User{
		ID:       "user-123",
		Email:    "test@example.com",
		Password: hashPassword(t, "password123"),
	}

	// Test successful login
	var storedToken string
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	mockRepo.On("UpdateToken", ctx, user.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { storedToken = args.String(2) }).
		Return(nil).Once()

	result, err := authService.LoginUser(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, result.Token, storedToken, "the issued token is stored on the user")
	assert.Equal(t, user.ID, result.UserID)
	assert.Equal(t, user.Email, result.Email)

	parsedToken, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Email, claims["email"])
	assert.NotEmpty(t, claims["jti"])
	assert.Contains(t, claims, "exp")
	assert.Contains(t, claims, "iat")
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, err = authService.LoginUser(ctx, user.Email, "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()
	_, err = authService.LoginUser(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Test token persistence failure
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	mockRepo.On("UpdateToken", ctx, user.ID, mock.AnythingOfType("string")).Return(errors.New("disk full")).Once()
	_, err = authService.LoginUser(ctx, user.Email, "password123")
	assert.ErrorContains(t, err, "failed to store session token")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	authService := newAuthService(new(MockUserRepository))
	key := []byte(testJWTSecret)
	exp := time.Now().Add(time.Hour).Unix()

	// Test valid token
	valid := signToken(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
		"user_id": "user-123",
		"email":   "test@example.com",
		"jti":     "token-1",
		"exp":     exp,
	})
	identity, err := authService.ValidateToken(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "test@example.com", identity.Email)
	assert.Equal(t, "token-1", identity.TokenID)
	assert.Equal(t, exp, identity.ExpiresAt.Unix())

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "invalid.token.string"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{
			"user_id": "user-123", "jti": "t", "exp": exp,
		})},
		{"expired", signToken(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
			"user_id": "user-123", "jti": "t", "exp": time.Now().Add(-time.Hour).Unix(),
		})},
		{"missing exp", signToken(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
			"user_id": "user-123", "jti": "t",
		})},
		{"missing user", signToken(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
			"jti": "t", "exp": exp,
		})},
		{"missing jti", signToken(t, jwt.SigningMethodHS256, key, jwt.MapClaims{
			"user_id": "user-123", "exp": exp,
		})},
		{"unsigned", signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{
			"user_id": "user-123", "jti": "t", "exp": exp,
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.ValidateToken(ctx, tt.token)
			assert.ErrorIs(t, err, services.ErrInvalidToken)
			assert.Contains(t, err.Error(), "invalid token")
		})
	}
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	user := &models.User{ID: "user-123", Email: "test@example.com", Password: hashPassword(t, "password123")}
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	mockRepo.On("UpdateToken", ctx, user.ID, mock.MatchedBy(func(token string) bool { return token != "" })).Return(nil).Once()

	result, err := authService.LoginUser(ctx, user.Email, "password123")
	require.NoError(t, err)

	identity, err := authService.ValidateToken(ctx, result.Token)
	require.NoError(t, err)

	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	mockRepo.On("UpdateToken", ctx, user.ID, "").Return(nil).Once()
	require.NoError(t, authService.LogoutUser(ctx, *identity))

	_, err = authService.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
	assert.Contains(t, err.Error(), "revoked")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LogoutUser_Errors(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	err := authService.LogoutUser(ctx, services.Identity{})
	assert.ErrorIs(t, err, services.ErrOwnerRequired)

	mockRepo.On("GetByID", ctx, "ghost").Return(nil, repositories.ErrNotFound).Once()
	err = authService.LogoutUser(ctx, services.Identity{UserID: "ghost", TokenID: "t", ExpiresAt: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	for _, call := range mockRepo.Calls {
		assert.NotEqual(t, "UpdateToken", call.Method, "a missing user must not have its token cleared")
	}

	user := &models.User{ID: "user-1", Email: "a@example.com"}
	mockRepo.On("GetByID", ctx, user.ID).Return(user, nil).Once()
	mockRepo.On("UpdateToken", ctx, user.ID, "").Return(errors.New("connection reset")).Once()
	err = authService.LogoutUser(ctx, services.Identity{UserID: user.ID, TokenID: "t", ExpiresAt: time.Now().Add(time.Hour)})
	assert.ErrorContains(t, err, "failed to clear session token")
	mockRepo.AssertExpectations(t)
}
