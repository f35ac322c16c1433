package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/docsearch/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

// AuthService authenticates the single configured user and issues HS256
// bearer tokens whose subject is the username.
type AuthService struct {
	username     string
	passwordHash []byte
	secret       []byte
	expiry       time.Duration
	now          func() time.Time
}

func NewAuthService(username, password, secret string, expiry time.Duration) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	return &AuthService{username: username, passwordHash: hash, secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

func (s *AuthService) Authenticate(username, password string) (*models.User, error) {
	if username != s.username || bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &models.User{Username: username}, nil
}

func (s *AuthService) IssueToken(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken returns the username carried by a valid token.
func (s *AuthService) VerifyToken(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
