package config

import "time"

// JWTConfig содержит настройки токенов.
type JWTConfig struct {
	SecretKey       string        `yaml:"secret_key" env:"MOCKAPI_JWT_SECRET_KEY" env-default:"mockapi-secret-change-me"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"MOCKAPI_JWT_ACCESS_TOKEN_TTL" env-default:"5m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"MOCKAPI_JWT_REFRESH_TOKEN_TTL" env-default:"24h"`
	BCryptCost      int           `yaml:"bcrypt_cost" env:"MOCKAPI_JWT_BCRYPT_COST" env-default:"10"`
	// RefreshDisabled заставляет эндпоинт обновления отвечать 401.
	RefreshDisabled bool `yaml:"refresh_disabled" env:"MOCKAPI_JWT_REFRESH_DISABLED" env-default:"false"`
}
