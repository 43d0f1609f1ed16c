package testutils

import (
	"time"

	"github.com/librishq/libris/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Libris Test",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			BcryptCost: bcrypt.MinCost,
			MinLength:  5,
		},
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret-for-tests-32-chars",
			RefreshSecret: "refresh-secret-for-tests-32-char",
			AccessTTL:     config.TTL(15 * time.Minute),
			RefreshTTL:    config.TTL(7 * 24 * time.Hour),
			Issuer:        "libris-test",
		},
		RefreshToken: config.RefreshTokenConfig{
			CleanupInterval: 0,
		},
		Library: config.LibraryConfig{
			LoanPeriod: config.TTL(14 * 24 * time.Hour),
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}
}

var TestUsers = struct {
	Alice struct {
		Username string
		Email    string
		Password string
	}
}{
	Alice: struct {
		Username string
		Email    string
		Password string
	}{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw123",
	},
}
