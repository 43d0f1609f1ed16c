package refreshtoken

import (
	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideRefreshTokenStore(db *gorm.DB, config *config.Config, logger *logging.Service) Store {
	service := NewService(db, config, logger)

	if config.RefreshToken.CleanupInterval.Duration() > 0 {
		service.StartCleanupWorker()
	}

	return service
}

var Options = fx.Options(
	fx.Provide(ProvideRefreshTokenStore),
)
