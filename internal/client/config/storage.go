package config

import (
	"fmt"
	"time"

	dbredis "fitsync/pkg/db/redis"
)

// Драйверы хранилища состояния.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// StorageConfig выбирает хранилище для сессии и офлайн-очереди.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"FITSYNC_STORAGE_DRIVER" env-default:"sqlite"`
}

// RedisConfig представляет конфигурацию для Redis.
type RedisConfig struct {
	Host       string        `yaml:"host" env:"FITSYNC_REDIS_HOST" env-default:"localhost"`
	Port       int           `yaml:"port" env:"FITSYNC_REDIS_PORT" env-default:"6379"`
	Password   string        `yaml:"password" env:"FITSYNC_REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"FITSYNC_REDIS_DB" env-default:"0"`
	PoolSize   int           `yaml:"pool_size" env:"FITSYNC_REDIS_POOL_SIZE" env-default:"10"`
	Timeout    time.Duration `yaml:"timeout" env:"FITSYNC_REDIS_TIMEOUT" env-default:"3s"`
	KeyPrefix  string        `yaml:"key_prefix" env:"FITSYNC_REDIS_KEY_PREFIX" env-default:"fitsync"`
	DefaultTTL time.Duration `yaml:"default_ttl" env:"FITSYNC_REDIS_DEFAULT_TTL" env-default:"24h"`
}

// PostgresConfig представляет конфигурацию Postgres.
type PostgresConfig struct {
	Host           string `yaml:"host" env:"FITSYNC_POSTGRES_HOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"FITSYNC_POSTGRES_PORT" env-default:"5432"`
	User           string `yaml:"user" env:"FITSYNC_POSTGRES_USER" env-default:"fitsync"`
	Password       string `yaml:"password" env:"FITSYNC_POSTGRES_PASSWORD"`
	Database       string `yaml:"database" env:"FITSYNC_POSTGRES_DB" env-default:"fitsync"`
	SSLMode        string `yaml:"ssl_mode" env:"FITSYNC_POSTGRES_SSLMODE" env-default:"disable"`
	MinConn        int    `yaml:"min_conn" env:"FITSYNC_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn        int    `yaml:"max_conn" env:"FITSYNC_POSTGRES_MAX_CONN" env-default:"4"`
	MigrationsPath string `yaml:"migrations_path" env:"FITSYNC_POSTGRES_MIGRATIONS" env-default:"file://migrations/client"`
	Device         string `yaml:"device" env:"FITSYNC_POSTGRES_DEVICE" env-default:"default"`
}

// DSN возвращает строку подключения.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// SQLiteConfig - файл локального хранилища.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"FITSYNC_SQLITE_PATH" env-default:"fitsync.db"`
}

// Connection возвращает параметры подключения к Redis.
func (c *RedisConfig) Connection() *dbredis.Config {
	return &dbredis.Config{
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
		DB:       c.DB,
		PoolSize: c.PoolSize,
		Timeout:  c.Timeout,
	}
}
