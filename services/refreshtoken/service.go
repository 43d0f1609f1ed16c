package refreshtoken

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
)

type Store interface {
	Upsert(userID uint, token string, expiresAt time.Time, sessionInfo SessionInfo) (*RefreshToken, error)
	FindByToken(token string) (*RefreshToken, error)
	DeleteByToken(token string) error
	DeleteAllForUser(userID uint) error
	CleanupExpiredTokens() error
}

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, config *config.Config, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		config: config,
		logger: logger,
	}
}

// Upsert stores the refresh token for userID, replacing any previous
// row. One active refresh token per user: a new login or rotation
// silently retires the previous session.
func (s *Service) Upsert(userID uint, token string, expiresAt time.Time, sessionInfo SessionInfo) (*RefreshToken, error) {
	now := time.Now()
	row := RefreshToken{
		UserID:    userID,
		TokenHash: HashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: now,
		LastUsed:  now,
		IPAddress: sessionInfo.IPAddress,
		Device:    sessionInfo.Device,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"token_hash", "expires_at", "created_at", "last_used", "ip_address", "device",
		}),
	}).Create(&row).Error
	if err != nil {
		s.logger.Error("failed to upsert refresh token", zap.Error(err), zap.Uint("user_id", userID))
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.Info("refresh token stored",
		zap.Uint("user_id", userID),
		zap.Time("expires_at", expiresAt))

	return &row, nil
}

// FindByToken resolves a presented token to its stored row. An expired
// row is deleted on detection and reported as ErrRefreshTokenExpired.
func (s *Service) FindByToken(token string) (*RefreshToken, error) {
	tokenHash := HashToken(token)

	var row RefreshToken
	err := s.db.Where("token_hash = ?", tokenHash).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("refresh token lookup failed - token not found")
			return nil, ErrRefreshTokenNotFound
		}
		s.logger.Error("refresh token lookup failed - database error", zap.Error(err))
		return nil, fmt.Errorf("database error: %w", err)
	}

	if time.Now().After(row.ExpiresAt) {
		s.logger.Warn("refresh token expired",
			zap.Uint("user_id", row.UserID),
			zap.Time("expired_at", row.ExpiresAt))
		s.db.Delete(&row)
		return nil, ErrRefreshTokenExpired
	}

	return &row, nil
}

// DeleteByToken revokes a refresh token by value. Deleting a token that
// is already gone is not an error.
func (s *Service) DeleteByToken(token string) error {
	tokenHash := HashToken(token)
	result := s.db.Where("token_hash = ?", tokenHash).Delete(&RefreshToken{})
	if result.Error != nil {
		s.logger.Error("failed to delete refresh token", zap.Error(result.Error))
		return fmt.Errorf("failed to delete refresh token: %w", result.Error)
	}

	s.logger.Info("refresh token deleted", zap.Int64("affected_rows", result.RowsAffected))
	return nil
}

func (s *Service) DeleteAllForUser(userID uint) error {
	result := s.db.Where("user_id = ?", userID).Delete(&RefreshToken{})
	if result.Error != nil {
		s.logger.Error("failed to delete user refresh tokens",
			zap.Error(result.Error), zap.Uint("user_id", userID))
		return fmt.Errorf("failed to delete user refresh tokens: %w", result.Error)
	}

	s.logger.Info("user refresh tokens deleted",
		zap.Uint("user_id", userID),
		zap.Int64("count", result.RowsAffected))
	return nil
}

func (s *Service) CleanupExpiredTokens() error {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&RefreshToken{})
	if result.Error != nil {
		s.logger.Error("failed to cleanup expired refresh tokens", zap.Error(result.Error))
		return fmt.Errorf("failed to cleanup expired tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("cleaned up expired refresh tokens", zap.Int64("count", result.RowsAffected))
	}
	return nil
}

func (s *Service) StartCleanupWorker() {
	go func() {
		ticker := time.NewTicker(s.config.RefreshToken.CleanupInterval.Duration())
		defer ticker.Stop()

		for range ticker.C {
			if err := s.CleanupExpiredTokens(); err != nil {
				s.logger.Error("refresh token cleanup worker failed", zap.Error(err))
			}
		}
	}()

	s.logger.Info("started refresh token cleanup worker",
		zap.Duration("interval", s.config.RefreshToken.CleanupInterval.Duration()))
}

// HashToken produces the storage key for a token string. Only the
// sha256 digest is persisted, never the token itself.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
