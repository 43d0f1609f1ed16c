package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/librishq/libris/config"
	"github.com/librishq/libris/database"
	"github.com/librishq/libris/handlers"
	"github.com/librishq/libris/server"
	"github.com/librishq/libris/services/auth"
	"github.com/librishq/libris/services/jwt"
	"github.com/librishq/libris/services/library"
	"github.com/librishq/libris/services/logging"
	"github.com/librishq/libris/services/refreshtoken"
	"go.uber.org/fx"
)

type App struct {
	fx *fx.App
}

// New assembles the full application graph. A non-nil cfg overrides the
// environment, which is how tests construct an app.
func New(cfg *config.Config) *App {
	fxApp := fx.New(
		fx.NopLogger,
		config.NewProvider(cfg),
		logging.Module,
		fx.Provide(func() *database.ModelsOption {
			return database.WithModels(
				&auth.User{},
				&refreshtoken.RefreshToken{},
				&library.Author{},
				&library.Book{},
				&library.Loan{},
			)
		}),
		database.Module,
		jwt.Options,
		refreshtoken.Options,
		auth.Options,
		library.Options,
		server.NewProvider(),
		handlers.Options,
		fx.Invoke(func(lc fx.Lifecycle, logger *logging.Service) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return logger.Sync()
				},
			})
		}),
	)

	return &App{fx: fxApp}
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the app and blocks until SIGINT or SIGTERM, then stops it
// gracefully.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}
}
