// Package auth реализует вход и обновление токенов через HTTP API.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/ports/services"
	"fitsync/pkg/logger"
	"fitsync/pkg/token"
)

// Константы для логирования.
const (
	methodLogin   = "Login"
	methodRefresh = "Refresh"

	msgRequestingTokens = "requesting token pair"
	msgTokensReceived   = "token pair received"
	msgClaimsUnreadable = "access token claims unreadable, using stored identity"

	errCtxLogin   = "login"
	errCtxRefresh = "refresh"
	errEncode     = "encode auth request"
	errDecode     = "decode auth response"
	errBuild      = "build auth request"
	errNoPassword = "no refresh token and no stored password"
)

var (
	_ services.TokenRefresher = (*HTTPClient)(nil)
	_ services.Authenticator  = (*HTTPClient)(nil)
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type refreshRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken,omitempty"`
	Password     string `json:"password,omitempty"`
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HTTPClient - клиент эндпоинтов входа и обновления токенов.
type HTTPClient struct {
	doer        services.Doer
	baseURL     string
	loginPath   string
	refreshPath string
	passwords   services.PasswordProvider
}

// Option настраивает HTTPClient.
type Option func(*HTTPClient)

// WithPaths задает пути эндпоинтов.
func WithPaths(login, refresh string) Option {
	return func(c *HTTPClient) {
		if login != "" {
			c.loginPath = login
		}
		if refresh != "" {
			c.refreshPath = refresh
		}
	}
}

// WithPasswordProvider включает обновление по email и паролю, когда refresh токена нет.
func WithPasswordProvider(p services.PasswordProvider) Option {
	return func(c *HTTPClient) { c.passwords = p }
}

// NewHTTPClient создает клиент. doer не должен обрабатывать 401 сам.
func NewHTTPClient(baseURL string, doer services.Doer, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		doer:        doer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		loginPath:   "/api/v1/auth/login",
		refreshPath: "/api/v1/auth/refresh",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login выполняет вход. Ответ 401 возвращается как domain.ErrUnauthorized.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (entities.Credential, error) {
	pair, err := c.post(ctx, methodLogin, c.loginPath, loginRequest{Email: email, Password: password})
	if err != nil {
		if respErr, ok := asResponseError(err); ok && respErr.StatusCode == http.StatusUnauthorized {
			return entities.Credential{}, fmt.Errorf("%s: %w: %w", errCtxLogin, domain.ErrUnauthorized, err)
		}
		return entities.Credential{}, fmt.Errorf("%s: %w", errCtxLogin, err)
	}
	return c.credential(ctx, entities.Credential{Email: email}, pair), nil
}

// Refresh обменивает текущую сессию на новую пару токенов. Любой ответ кроме
// 2xx с непустым access токеном считается отказом.
func (c *HTTPClient) Refresh(ctx context.Context, cred entities.Credential) (entities.Credential, error) {
	body := refreshRequest{Email: cred.Email, RefreshToken: cred.RefreshToken}
	if body.RefreshToken == "" {
		if c.passwords == nil {
			return entities.Credential{}, fmt.Errorf("%s: %w: %s", errCtxRefresh, domain.ErrRefreshRejected, errNoPassword)
		}
		password, err := c.passwords.Password(ctx, cred.Email)
		if err != nil {
			return entities.Credential{}, fmt.Errorf("%s: %w: %w", errCtxRefresh, domain.ErrRefreshRejected, err)
		}
		body.Password = password
	}

	pair, err := c.post(ctx, methodRefresh, c.refreshPath, body)
	if err != nil {
		if _, ok := asResponseError(err); ok {
			return entities.Credential{}, fmt.Errorf("%s: %w: %w", errCtxRefresh, domain.ErrRefreshRejected, err)
		}
		return entities.Credential{}, fmt.Errorf("%s: %w", errCtxRefresh, err)
	}
	return c.credential(ctx, cred, pair), nil
}

func (c *HTTPClient) post(ctx context.Context, method, path string, in any) (tokenPair, error) {
	log := logger.Log(ctx).With(zap.String("method", method))
	log.Debug(ctx, msgRequestingTokens, zap.String("path", path))

	payload, err := json.Marshal(in)
	if err != nil {
		return tokenPair{}, fmt.Errorf("%s: %w", errEncode, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return tokenPair{}, fmt.Errorf("%s: %w", errBuild, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return tokenPair{}, fmt.Errorf("%s %s: %w: %w", http.MethodPost, path, domain.ErrNoResponse, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenPair{}, fmt.Errorf("%s: %w: %w", errDecode, domain.ErrNoResponse, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return tokenPair{}, &domain.ResponseError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodPost,
			URL:        path,
			Body:       data,
		}
	}

	var pair tokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return tokenPair{}, fmt.Errorf("%s: %w: %w", errDecode, domain.ErrRefreshRejected, err)
	}
	if pair.AccessToken == "" {
		return tokenPair{}, fmt.Errorf("%s: %w: empty access token", errDecode, domain.ErrRefreshRejected)
	}

	log.Debug(ctx, msgTokensReceived)
	return pair, nil
}

// credential собирает новую сессию поверх прежней. Идентичность пользователя
// берется из claims access токена, если их удается прочитать.
func (c *HTTPClient) credential(ctx context.Context, prev entities.Credential, pair tokenPair) entities.Credential {
	next := prev.WithTokens(pair.AccessToken, pair.RefreshToken, time.Time{})

	claims, err := token.DecodeUnverified(pair.AccessToken)
	if err != nil {
		logger.Log(ctx).Debug(ctx, msgClaimsUnreadable, zap.Error(err))
		return next
	}
	next.ExpiresAt = claims.Expiry()
	if claims.UserID != "" {
		next.UserID = claims.UserID
	}
	if claims.Role != "" {
		next.Role = claims.Role
	}
	if next.Email == "" {
		next.Email = claims.Email
	}
	return next
}

func asResponseError(err error) (*domain.ResponseError, bool) {
	var respErr *domain.ResponseError
	ok := errors.As(err, &respErr)
	return respErr, ok
}
