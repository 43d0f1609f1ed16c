package config

import (
	"errors"
	"log"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	Log          LogConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	JWT          JWTConfig
	RefreshToken RefreshTokenConfig
	Library      LibraryConfig
}

type AppConfig struct {
	Name string `env:"APP_NAME" envDefault:"Libris"`
	URL  string `env:"APP_URL" envDefault:"http://localhost:8080"`
}

type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"8080"`
	Host string `env:"SERVER_HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
	Output string `env:"LOG_OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DATABASE_DSN" envDefault:"libris.db"`
	AutoMigrate bool   `env:"DATABASE_AUTOMIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	MinLength  int `env:"AUTH_MIN_LENGTH" envDefault:"6"`
}

// JWTConfig carries two independent signing secrets: a leaked access
// secret must not be usable to mint refresh tokens.
type JWTConfig struct {
	AccessSecret  string `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string `env:"JWT_REFRESH_SECRET"`
	AccessTTL     TTL    `env:"JWT_ACCESS_TTL" envDefault:"2h"`
	RefreshTTL    TTL    `env:"JWT_REFRESH_TTL" envDefault:"7d"`
	Issuer        string `env:"JWT_ISSUER" envDefault:"libris"`
}

type RefreshTokenConfig struct {
	CleanupInterval TTL `env:"REFRESH_TOKEN_CLEANUP_INTERVAL" envDefault:"1h"`
}

type LibraryConfig struct {
	LoanPeriod TTL `env:"LIBRARY_LOAN_PERIOD" envDefault:"14d"`
}

var ErrMissingJWTSecrets = errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return ErrMissingJWTSecrets
	}
	return nil
}
