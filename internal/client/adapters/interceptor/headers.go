// Package interceptor декорирует исходящие запросы заголовками сессии и устройства.
package interceptor

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	"fitsync/internal/client/ports/services"
	"fitsync/pkg/logger"
)

// Заголовки запроса.
const (
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderLocale          = "X-Locale"
	HeaderUserID          = "X-User-ID"
	HeaderUserRole        = "X-User-Role"
	HeaderNetworkType     = "X-Network-Type"
	HeaderBundleID        = "X-Bundle-ID"
	HeaderAppVersion      = "X-App-Version"
	HeaderOperatingSystem = "X-Operating-System"

	ContentTypeJSON = "application/json"
)

const LogDecorated = "request decorated"

// HeaderDecorator выставляет заголовки авторизации и контекста устройства.
// Повторный вызов с тем же контекстом дает те же заголовки.
type HeaderDecorator struct {
	credentials services.CredentialSource
	device      services.ContextProvider
}

// NewHeaderDecorator создает декоратор. Любой из источников может быть nil.
func NewHeaderDecorator(credentials services.CredentialSource, device services.ContextProvider) *HeaderDecorator {
	return &HeaderDecorator{credentials: credentials, device: device}
}

// Decorate выставляет заголовки и возвращает использованный access токен
// (пустой, если сессии нет).
func (d *HeaderDecorator) Decorate(req *http.Request) string {
	ctx := req.Context()

	var dc entities.DeviceContext
	if d.device != nil {
		dc = d.device.DeviceContext(ctx)
	}

	var token string
	if cred := d.current(ctx); cred != nil {
		token = cred.AccessToken
		if dc.UserID == "" {
			dc.UserID = cred.UserID
		}
		if dc.Role == "" {
			dc.Role = cred.Role
		}
	}

	h := req.Header
	h.Set(HeaderContentType, ContentTypeJSON)
	setOrDelete(h, HeaderAuthorization, token)
	setOrDelete(h, HeaderLocale, dc.Locale)
	setOrDelete(h, HeaderUserID, dc.UserID)
	setOrDelete(h, HeaderUserRole, dc.Role)
	setOrDelete(h, HeaderNetworkType, dc.NetworkType)
	h.Set(HeaderBundleID, dc.BundleID)
	h.Set(HeaderAppVersion, dc.AppVersion)
	h.Set(HeaderOperatingSystem, strings.TrimSpace(dc.OSName+" "+dc.OSVersion))

	logger.Log(ctx).Debug(ctx, LogDecorated,
		zap.String("method", req.Method),
		zap.Bool("authorized", token != ""))

	return token
}

func (d *HeaderDecorator) current(ctx context.Context) *entities.Credential {
	if d.credentials == nil {
		return nil
	}
	cred := d.credentials.Current(ctx)
	if cred.IsZero() {
		return nil
	}
	return cred
}

// setOrDelete выставляет заголовок или убирает его, если значение неизвестно.
func setOrDelete(h http.Header, key, value string) {
	if value == "" {
		h.Del(key)
		return
	}
	h.Set(key, value)
}

// Transport - http.RoundTripper, декорирующий каждый запрос.
type Transport struct {
	Base      http.RoundTripper
	Decorator *HeaderDecorator
}

// RoundTrip декорирует копию запроса и передает ее базовому транспорту.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	t.Decorator.Decorate(clone)
	return base.RoundTrip(clone)
}
