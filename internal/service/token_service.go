package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"blog-api/internal/domain"
)

// TokenService issues and verifies the signed bearer tokens that prove a
// caller's identity for the lifetime of a request.
type TokenService interface {
	Issue(userID int64, username string) (string, error)
	Verify(token string) (*domain.Identity, error)
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a token service around the process-wide signing
// secret loaded at startup.
func NewTokenService(secret string, ttl time.Duration) TokenService {
	return &tokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *tokenService) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(userID, 10),
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *tokenService) Verify(tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 {
		return nil, domain.ErrInvalidToken
	}

	username, _ := claims["username"].(string)
	if username == "" {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Identity{UserID: userID, Username: username}, nil
}
