package auth

import (
	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/jwt"
	"github.com/librishq/libris/services/logging"
	"github.com/librishq/libris/services/refreshtoken"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewAuthService(cfg *config.Config, db *gorm.DB, jwtService *jwt.Service, tokens refreshtoken.Store, logger *logging.Service) *Service {
	return NewService(cfg, db, jwtService, tokens, logger)
}

var Options = fx.Options(
	fx.Provide(NewAuthService),
)
