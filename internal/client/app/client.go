// Package app собирает клиент API: декорирование заголовков, обновление токена
// по 401, офлайн-очередь, сессию, проверку подписки и триггеры синхронизации.
package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fitsync/internal/client/adapters/queue"
	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/metrics"
	"fitsync/internal/client/ports/services"
	"fitsync/pkg/logger"
)

// DefaultRequestTimeout - таймаут одного сетевого вызова.
const DefaultRequestTimeout = 15 * time.Second

const (
	LogRequestFailed  = "request got no response"
	LogRetryRefreshed = "retrying request with refreshed token"
	LogQueueFailed    = "failed to queue offline request"

	ErrBuildRequest = "build request"
	ErrReadBody     = "read response body"
	ErrEncodeBody   = "encode request body"
	ErrDecodeBody   = "decode response body"
)

// Decorator выставляет заголовки и возвращает использованный access токен.
type Decorator interface {
	Decorate(req *http.Request) string
}

// UnauthorizedHandler обрабатывает ответ 401.
type UnauthorizedHandler interface {
	HandleUnauthorized(ctx context.Context, failedToken string) (string, error)
}

// OfflineQueue - офлайн-очередь запросов.
type OfflineQueue interface {
	Enqueue(ctx context.Context, req entities.QueuedRequest) (entities.QueuedRequest, error)
	Drain(ctx context.Context, replayer services.Replayer) (queue.DrainResult, error)
}

// Client - клиент API.
type Client struct {
	baseURL   string
	doer      services.Doer
	decorator Decorator
	auth      UnauthorizedHandler
	queue     OfflineQueue
	metrics   *metrics.Metrics
	timeout   time.Duration
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithRequestTimeout задает таймаут одного вызова.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientMetrics подключает метрики.
func WithClientMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// NewClient создает клиент. queue может быть nil: тогда запросы не ставятся в очередь.
func NewClient(
	baseURL string,
	doer services.Doer,
	decorator Decorator,
	auth UnauthorizedHandler,
	queue OfflineQueue,
	opts ...ClientOption,
) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		doer:      doer,
		decorator: decorator,
		auth:      auth,
		queue:     queue,
		timeout:   DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do выполняет запрос. Ответ с кодом ошибки возвращается вместе с *domain.ResponseError.
// Запрос без ответа сервера, помеченный Queueable, сохраняется в очередь, и
// возвращается ошибка, оборачивающая domain.ErrRequestQueued.
func (c *Client) Do(ctx context.Context, req *entities.Request) (*entities.Response, error) {
	resp, err := c.send(ctx, req.Method, req.URL, req.Header, req.Body)
	if err == nil || !domain.IsNoResponse(err) {
		return resp, err
	}

	log := logger.Log(ctx).With(zap.String("method", req.Method), zap.String("url", req.URL))
	log.Info(ctx, LogRequestFailed, zap.Error(err))

	if c.queue == nil || !req.Queueable || !entities.IsWriteMethod(req.Method) {
		return nil, err
	}

	if _, qerr := c.queue.Enqueue(ctx, entities.QueuedRequest{
		Method: req.Method,
		URL:    req.URL,
		Header: cloneHeader(req.Header),
		Body:   bytes.Clone(req.Body),
	}); qerr != nil {
		log.Error(ctx, LogQueueFailed, zap.Error(qerr))
		return nil, errors.Join(err, qerr)
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrRequestQueued, err)
}

// Replay повторяет запрос из офлайн-очереди без повторной постановки в очередь.
func (c *Client) Replay(ctx context.Context, req entities.QueuedRequest) (*entities.Response, error) {
	return c.send(ctx, req.Method, req.URL, http.Header(req.Header), req.Body)
}

// DrainQueue разбирает офлайн-очередь. trigger попадает в метрики и лог.
func (c *Client) DrainQueue(ctx context.Context, trigger string) (queue.DrainResult, error) {
	if c.queue == nil {
		return queue.DrainResult{}, nil
	}
	c.metrics.Drain(trigger)
	return c.queue.Drain(ctx, c)
}

// GetJSON выполняет GET и декодирует JSON ответ в out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, &entities.Request{Method: http.MethodGet, URL: path})
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// SendJSON кодирует in в тело запроса, выполняет его и декодирует ответ в out (если не nil).
func (c *Client) SendJSON(ctx context.Context, method, path string, in any, queueable bool, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrEncodeBody, err)
	}
	resp, err := c.Do(ctx, &entities.Request{Method: method, URL: path, Body: body, Queueable: queueable})
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// send - общий путь Do и Replay: попытка, при 401 обновление токена и один повтор.
func (c *Client) send(ctx context.Context, method, url string, header http.Header, body []byte) (*entities.Response, error) {
	resp, token, err := c.attempt(ctx, method, url, header, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.auth == nil {
		return c.result(method, url, resp)
	}

	if _, err := c.auth.HandleUnauthorized(ctx, token); err != nil {
		if errors.Is(err, domain.ErrNoCredential) {
			return resp, fmt.Errorf("%w: %w", domain.ErrUnauthorized, c.responseError(method, url, resp))
		}
		return nil, err
	}

	logger.Log(ctx).Debug(ctx, LogRetryRefreshed, zap.String("method", method), zap.String("url", url))

	resp, _, err = c.attempt(ctx, method, url, header, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return resp, fmt.Errorf("%w: %w", domain.ErrUnauthorized, c.responseError(method, url, resp))
	}
	return c.result(method, url, resp)
}

// attempt выполняет один сетевой вызов с таймаутом. Отсутствие ответа
// (включая таймаут) возвращается как ошибка, оборачивающая domain.ErrNoResponse.
func (c *Client) attempt(parent context.Context, method, url string, header http.Header, body []byte) (*entities.Response, string, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(url), reader)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", ErrBuildRequest, err)
	}
	if header != nil {
		httpReq.Header = header.Clone()
	}

	var token string
	if c.decorator != nil {
		token = c.decorator.Decorate(httpReq)
	}

	httpResp, err := c.doer.Do(httpReq)
	if err != nil {
		if parentErr := parent.Err(); parentErr != nil {
			return nil, token, parentErr
		}
		c.metrics.Request(method, "none")
		return nil, token, fmt.Errorf("%s %s: %w: %w", method, url, domain.ErrNoResponse, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if parentErr := parent.Err(); parentErr != nil {
			return nil, token, parentErr
		}
		c.metrics.Request(method, "none")
		return nil, token, fmt.Errorf("%s: %w: %w", ErrReadBody, domain.ErrNoResponse, err)
	}

	c.metrics.Request(method, statusClass(httpResp.StatusCode))
	return &entities.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, token, nil
}

func (c *Client) result(method, url string, resp *entities.Response) (*entities.Response, error) {
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, c.responseError(method, url, resp)
	}
	return resp, nil
}

func (c *Client) responseError(method, url string, resp *entities.Response) *domain.ResponseError {
	return &domain.ResponseError{
		StatusCode: resp.StatusCode,
		Method:     method,
		URL:        url,
		Body:       resp.Body,
	}
}

func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return c.baseURL + "/" + strings.TrimLeft(url, "/")
}

func decodeJSON(resp *entities.Response, out any) error {
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: %w", ErrDecodeBody, err)
	}
	return nil
}

func cloneHeader(h http.Header) map[string][]string {
	if h == nil {
		return nil
	}
	return h.Clone()
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
