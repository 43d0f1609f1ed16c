package library

import (
	"github.com/librishq/libris/config"
	"github.com/librishq/libris/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewLibraryService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(NewLibraryService),
)
