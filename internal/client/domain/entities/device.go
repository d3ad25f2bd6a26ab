package entities

// DeviceContext - контекст устройства и пользователя для заголовков запроса.
// Пустые поля означают, что значение неизвестно.
type DeviceContext struct {
	Locale      string
	UserID      string
	Role        string
	NetworkType string
	BundleID    string
	AppVersion  string
	OSName      string
	OSVersion   string
}

// Network types.
const (
	NetworkNone     = "none"
	NetworkWiFi     = "wifi"
	NetworkCellular = "cellular"
	NetworkEthernet = "ethernet"
)
