package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vronney/orders-management-system/internal/config"
	"github.com/vronney/orders-management-system/internal/model"
	apperrors "github.com/vronney/orders-management-system/pkg/errors"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates configured users and signs bearer tokens for them.
type Service struct {
	secret []byte
	expiry time.Duration
	users  map[string]config.UserConfig
}

func NewService(cfg *config.Config) *Service {
	users := make(map[string]config.UserConfig, len(cfg.Auth.Users))
	for _, u := range cfg.Auth.Users {
		users[u.Username] = u
	}
	return &Service{
		secret: []byte(cfg.Auth.JWTSecret),
		expiry: cfg.TokenExpiry(),
		users:  users,
	}
}

func (s *Service) Authenticate(username, password string) (*model.TokenResponse, error) {
	user, ok := s.users[username]
	if !ok || user.Password != password {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Role:        user.Role,
	}, nil
}

func (s *Service) IssueToken(username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies the signature and expiry and returns the claims.
// Every failure collapses into ErrInvalidToken; callers never learn why
// a credential was rejected.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
