package config

import (
	"strings"
	"time"
)

// APIConfig описывает backend и транспорт.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" env:"FITSYNC_API_BASE_URL" env-default:"http://localhost:8080"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"FITSYNC_API_REQUEST_TIMEOUT" env-default:"15s"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" env:"FITSYNC_API_REFRESH_TIMEOUT" env-default:"15s"`
	LoginPath      string        `yaml:"login_path" env:"FITSYNC_API_LOGIN_PATH" env-default:"/api/v1/auth/login"`
	RefreshPath    string        `yaml:"refresh_path" env:"FITSYNC_API_REFRESH_PATH" env-default:"/api/v1/auth/refresh"`
	HealthPath     string        `yaml:"health_path" env:"FITSYNC_API_HEALTH_PATH" env-default:"/api/v1/health"`
	Email          string        `yaml:"email" env:"FITSYNC_EMAIL"`
	Password       string        `yaml:"password" env:"FITSYNC_PASSWORD"`
}

// URL склеивает базовый адрес и путь.
func (c *APIConfig) URL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
