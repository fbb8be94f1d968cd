package services

import (
	"errors"
	"time"

	apperrors "movie-api/internal/pkg/errors"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

const adminRole = "admin"

// AdminTokenService mints and checks the HS256 tokens that guard the admin
// and billing operator routes.
type AdminTokenService struct {
	secret []byte
}

func NewAdminTokenService(secret string) *AdminTokenService {
	return &AdminTokenService{secret: []byte(secret)}
}

func (s *AdminTokenService) Mint(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", apperrors.Invalid("token subject is required")
	}
	if ttl <= 0 {
		return "", apperrors.Invalid("token lifetime must be positive")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": adminRole,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify returns the token subject when the token is valid and carries the
// admin role.
func (s *AdminTokenService) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != adminRole {
		return "", apperrors.ErrInsufficientPermission
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}
