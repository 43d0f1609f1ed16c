package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Claims is the identity payload embedded in both access and refresh
// tokens.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	config *config.Config
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
	}
}

func (s *Service) AccessTTL() time.Duration {
	return s.config.JWT.AccessTTL.Duration()
}

// AccessTTLLabel is the compact form ("2h") returned to clients as
// expiresIn.
func (s *Service) AccessTTLLabel() string {
	return s.config.JWT.AccessTTL.String()
}

func (s *Service) RefreshTTL() time.Duration {
	return s.config.JWT.RefreshTTL.Duration()
}

// GenerateAccessToken signs a short-lived stateless token with the
// access secret.
func (s *Service) GenerateAccessToken(userID uint, username, role string) (string, error) {
	token, err := s.generate(userID, username, role, s.config.JWT.AccessTTL.Duration(), s.config.JWT.AccessSecret)
	if err != nil {
		s.logger.Error("failed to sign access token", zap.Error(err))
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

// GenerateRefreshToken signs with a distinct secret so a leaked access
// signing key cannot mint refresh tokens.
func (s *Service) GenerateRefreshToken(userID uint, username, role string) (string, error) {
	token, err := s.generate(userID, username, role, s.config.JWT.RefreshTTL.Duration(), s.config.JWT.RefreshSecret)
	if err != nil {
		s.logger.Error("failed to sign refresh token", zap.Error(err))
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, nil
}

func (s *Service) generate(userID uint, username, role string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	jti := uuid.New().String()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.JWT.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{s.config.JWT.Issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken verifies signature and expiry against the access
// secret. No store access: access-token validity is self-contained.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.config.JWT.AccessSecret)
}

func (s *Service) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.config.JWT.RefreshSecret)
}

func (s *Service) validate(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}

		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}

		return []byte(secret), nil
	})

	if err != nil {
		s.logger.Warn("token validation failed", zap.Error(err))

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
