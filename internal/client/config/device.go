package config

// DeviceConfig - статический контекст устройства для заголовков запросов.
type DeviceConfig struct {
	BundleID    string `yaml:"bundle_id" env:"FITSYNC_DEVICE_BUNDLE_ID" env-default:"com.fitsync.app"`
	AppVersion  string `yaml:"app_version" env:"FITSYNC_DEVICE_APP_VERSION" env-default:"1.0.0"`
	OSName      string `yaml:"os_name" env:"FITSYNC_DEVICE_OS_NAME" env-default:"linux"`
	OSVersion   string `yaml:"os_version" env:"FITSYNC_DEVICE_OS_VERSION"`
	Locale      string `yaml:"locale" env:"FITSYNC_DEVICE_LOCALE"`
	NetworkType string `yaml:"network_type" env:"FITSYNC_DEVICE_NETWORK_TYPE" env-default:"wifi"`
}
