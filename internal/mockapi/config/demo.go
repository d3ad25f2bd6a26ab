package config

import "time"

// DemoConfig описывает пользователя, создаваемого при старте.
type DemoConfig struct {
	Email        string        `yaml:"email" env:"MOCKAPI_DEMO_EMAIL" env-default:"demo@fitsync.local"`
	Password     string        `yaml:"password" env:"MOCKAPI_DEMO_PASSWORD" env-default:"demo-password"`
	Role         string        `yaml:"role" env:"MOCKAPI_DEMO_ROLE" env-default:"premium"`
	Subscription string        `yaml:"subscription" env:"MOCKAPI_DEMO_SUBSCRIPTION" env-default:"trial"`
	ProductID    string        `yaml:"product_id" env:"MOCKAPI_DEMO_PRODUCT_ID" env-default:"fitsync.premium.monthly"`
	TrialPeriod  time.Duration `yaml:"trial_period" env:"MOCKAPI_DEMO_TRIAL_PERIOD" env-default:"168h"`
}
