package config

import "time"

// QueueConfig настраивает офлайн-очередь.
type QueueConfig struct {
	ReplayRate    float64 `yaml:"replay_rate" env:"FITSYNC_QUEUE_REPLAY_RATE" env-default:"5"`
	ReplayBurst   int     `yaml:"replay_burst" env:"FITSYNC_QUEUE_REPLAY_BURST" env-default:"1"`
	DrainSchedule string  `yaml:"drain_schedule" env:"FITSYNC_QUEUE_DRAIN_SCHEDULE" env-default:"@every 1m"`
}

// ConnectivityConfig настраивает проверку доступности backend.
type ConnectivityConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval" env:"FITSYNC_PROBE_INTERVAL" env-default:"10s"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" env:"FITSYNC_PROBE_TIMEOUT" env-default:"3s"`
}

// SubscriptionConfig настраивает проверку подписки.
type SubscriptionConfig struct {
	Path          string        `yaml:"path" env:"FITSYNC_SUBSCRIPTION_PATH" env-default:"/api/v1/subscription/status"`
	CheckInterval time.Duration `yaml:"check_interval" env:"FITSYNC_SUBSCRIPTION_CHECK_INTERVAL" env-default:"1h"`
	Schedule      string        `yaml:"schedule" env:"FITSYNC_SUBSCRIPTION_SCHEDULE" env-default:"@every 15m"`
}

// MetricsConfig - адрес HTTP эндпоинта метрик. Пустой адрес отключает его.
type MetricsConfig struct {
	Address string `yaml:"address" env:"FITSYNC_METRICS_ADDRESS" env-default:":9102"`
}

// ShutdownConfig представляет конфигурацию для корректного завершения работы.
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"FITSYNC_SHUTDOWN_TIMEOUT" env-default:"5s"`
}
