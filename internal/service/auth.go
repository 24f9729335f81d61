package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"chirper-api/internal/config"
	"chirper-api/internal/model"
	"chirper-api/internal/repository"
)

// AuthService issues and validates the stateless JWT pair: a short-lived
// access token sent as a Bearer header and a longer-lived refresh token
// carried in an http-only cookie.
type AuthService struct {
	users  repository.UserRepository
	config *config.Config
}

func NewAuthService(users repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		config: cfg,
	}
}

// ResolveAccount is login step 1: it finds the account by username or
// email so the client can show who is signing in before asking for the
// password. Misses surface as ErrUserNotFound.
func (s *AuthService) ResolveAccount(ctx context.Context, login string) (*model.User, error) {
	return s.users.GetByLogin(ctx, login)
}

// Login is step 2: it verifies the password and issues the token pair.
// A wrong password and an unknown account both map to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, login, password string) (*model.User, *model.TokenPair, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(password)); err != nil {
		return nil, nil, model.ErrInvalidCredentials
	}

	pair, err := s.GenerateTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// GenerateTokenPair signs both tokens for the user.
func (s *AuthService) GenerateTokenPair(user *model.User) (*model.TokenPair, error) {
	access, err := s.signToken(user, s.config.AccessTokenSecret, s.config.AccessTokenMaxAge)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := s.signToken(user, s.config.RefreshTokenSecret, s.config.RefreshTokenMaxAge)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, nil
}

// Refresh validates the refresh token from the cookie and reissues an
// access token for the account it names.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.User, string, error) {
	username, _, err := ParseToken(refreshToken, s.config.RefreshTokenSecret)
	if err != nil {
		return nil, "", model.ErrInvalidToken
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", model.ErrInvalidToken
	}

	access, err := s.signToken(user, s.config.AccessTokenSecret, s.config.AccessTokenMaxAge)
	if err != nil {
		return nil, "", fmt.Errorf("sign access token: %w", err)
	}

	return user, access, nil
}

func (s *AuthService) signToken(user *model.User, secret string, maxAgeSeconds int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username": user.Username,
		"user_id":  user.ID,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Duration(maxAgeSeconds) * time.Second).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates an HMAC-signed token and returns the username and
// user id claims.
func ParseToken(tokenString, secret string) (string, int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", 0, model.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", 0, model.ErrInvalidToken
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", 0, model.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return "", 0, model.ErrInvalidToken
	}

	return username, int64(userID), nil
}
