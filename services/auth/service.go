package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/jwt"
	"github.com/librishq/libris/services/logging"
	"github.com/librishq/libris/services/refreshtoken"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrPasswordTooShort      = errors.New("password is too short")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUsernameTaken         = errors.New("username is already taken")
	ErrUserNotFound          = errors.New("user not found")
	ErrMissingRefreshToken   = errors.New("refresh token is required")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrExpiredRefreshToken   = errors.New("refresh token has expired")
)

type Service struct {
	config     *config.Config
	db         *gorm.DB
	jwtService *jwt.Service
	tokens     refreshtoken.Store
	logger     *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, jwtService *jwt.Service, tokens refreshtoken.Store, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config:     cfg,
		db:         db,
		jwtService: jwtService,
		tokens:     tokens,
		logger:     logger,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < s.config.Auth.MinLength {
		return "", fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.config.Auth.MinLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

// VerifyPassword reports a mismatch as ErrInvalidCredentials, never as
// a distinct error, so callers cannot distinguish it from an unknown
// user.
func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates a user. Role elevation to admin is the caller's
// responsibility: handlers only pass RoleAdmin when the requester is an
// authenticated admin.
func (s *Service) Register(username, email, password, role string) (*PublicUser, error) {
	if role == "" {
		role = RoleUser
	}

	var existing User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		s.logger.Warn("registration rejected - username taken", zap.String("username", username))
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.db.Create(&user).Error; err != nil {
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role))

	public := user.Public()
	return &public, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown
// username and wrong password both surface the same
// ErrInvalidCredentials so the endpoint cannot be used for username
// enumeration. The stored refresh row is replaced, logging out any
// previous session for the user.
func (s *Service) Login(username, password string, sessionInfo refreshtoken.SessionInfo) (*TokenPair, error) {
	var user User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login failed - unknown username", zap.String("username", username))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("login failed - password mismatch", zap.Uint("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(&user, sessionInfo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return pair, nil
}

// Refresh rotates a refresh token: the presented token must both exist
// in the store and carry a valid signature, and is replaced on use so a
// stolen token is good for at most one refresh.
func (s *Service) Refresh(refreshToken string, sessionInfo refreshtoken.SessionInfo) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	stored, err := s.tokens.FindByToken(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, refreshtoken.ErrRefreshTokenNotFound):
			return nil, ErrInvalidRefreshToken
		case errors.Is(err, refreshtoken.ErrRefreshTokenExpired):
			return nil, ErrExpiredRefreshToken
		default:
			return nil, err
		}
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("refresh rejected - signature verification failed",
			zap.Uint("user_id", stored.UserID), zap.Error(err))
		return nil, ErrInvalidRefreshToken
	}

	user := User{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}

	pair, err := s.issueTokens(&user, sessionInfo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("refresh token rotated", zap.Uint("user_id", user.ID))
	return pair, nil
}

// Logout revokes the presented refresh token. Access tokens stay valid
// until expiry; revocation applies to the stored session only.
func (s *Service) Logout(refreshToken string) error {
	if refreshToken == "" {
		return ErrMissingRefreshToken
	}
	return s.tokens.DeleteByToken(refreshToken)
}

func (s *Service) Profile(userID uint) (*PublicUser, error) {
	var user User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	public := user.Public()
	return &public, nil
}

func (s *Service) issueTokens(user *User, sessionInfo refreshtoken.SessionInfo) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwtService.RefreshTTL())
	if _, err := s.tokens.Upsert(user.ID, refreshToken, expiresAt, sessionInfo); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwtService.AccessTTLLabel(),
	}, nil
}
