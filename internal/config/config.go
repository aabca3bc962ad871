package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Crypto   CryptoConfig   `mapstructure:"crypto" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// MaxUploadBytes bounds a single multipart submission. The whole file
	// is buffered in memory per in-flight request, so this is the lever
	// that caps memory pressure under concurrency.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// CryptoConfig contains the at-rest encryption settings.
type CryptoConfig struct {
	// MasterKeyHex is the fixed 32-byte master secret as 64 hex characters.
	// Wrong length fails fast when the envelope is constructed.
	MasterKeyHex string `mapstructure:"master_key_hex" validate:"required,len=64,hexadecimal"`
}

// EngineConfig contains settings for the external processing engine.
type EngineConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}
