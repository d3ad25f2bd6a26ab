// Package queue реализует офлайн-очередь запросов: запросы, не получившие ответа
// из-за отсутствия сети, сохраняются и повторяются по порядку после восстановления связи.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/metrics"
	"fitsync/internal/client/ports/services"
	"fitsync/internal/client/ports/storage"
	"fitsync/pkg/logger"
)

// Сообщения логов и префиксы ошибок очереди.
const (
	LogEnqueued       = "request queued for offline replay"
	LogDrainStarted   = "offline queue drain started"
	LogDrainFinished  = "offline queue drain finished"
	LogDrainStopped   = "offline queue drain stopped, still offline"
	LogReplayRejected = "queued request rejected by server, dropping"
	LogDrainSkipped   = "offline queue drain already running"

	ErrLoadQueue = "load offline queue"
	ErrSaveQueue = "save offline queue"
)

// ErrHeadChanged - голова очереди изменилась во время повтора.
var ErrHeadChanged = errors.New("offline queue head changed during replay")

// DrainResult - итог одного прохода по очереди.
type DrainResult struct {
	Delivered int
	Rejected  int
	Remaining int
	// Offline - проход остановлен на запросе, который по-прежнему не получил ответа.
	Offline bool
}

// Queue - FIFO очередь поверх QueueStore. Enqueue и удаление головы выполняются
// под одним мьютексом, поэтому новые записи всегда добавляются в хвост.
type Queue struct {
	store   storage.QueueStore
	limiter *rate.Limiter
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	draining atomic.Bool
}

// Option настраивает Queue.
type Option func(*Queue)

// WithReplayRate ограничивает скорость повторов при разборе очереди.
func WithReplayRate(perSecond float64, burst int) Option {
	return func(q *Queue) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		q.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New создает очередь поверх хранилища.
func New(store storage.QueueStore, opts ...Option) *Queue {
	q := &Queue{store: store, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue добавляет запрос в хвост очереди. Дедупликации нет.
func (q *Queue) Enqueue(ctx context.Context, req entities.QueuedRequest) (entities.QueuedRequest, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = q.now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil {
		return req, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	items = append(items, req)
	if err := q.store.Save(ctx, items); err != nil {
		return req, fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}

	q.metrics.Enqueued(len(items))
	logger.Log(ctx).Info(ctx, LogEnqueued,
		zap.String("queued_id", req.ID),
		zap.String("method", req.Method),
		zap.Int("depth", len(items)))
	return req, nil
}

// Snapshot возвращает текущее содержимое очереди.
func (q *Queue) Snapshot(ctx context.Context) ([]entities.QueuedRequest, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	return items, nil
}

// Len возвращает длину очереди.
func (q *Queue) Len(ctx context.Context) (int, error) {
	items, err := q.Snapshot(ctx)
	return len(items), err
}

// Draining сообщает, выполняется ли сейчас проход по очереди.
func (q *Queue) Draining() bool {
	return q.draining.Load()
}

// Drain повторяет запросы от головы к хвосту. Запрос удаляется, если получен любой
// ответ сервера; проход останавливается на первом запросе без ответа, оставляя его
// и все последующие в очереди. Одновременно выполняется не более одного прохода:
// повторный вызов возвращает domain.ErrDrainInProgress.
func (q *Queue) Drain(ctx context.Context, replayer services.Replayer) (DrainResult, error) {
	log := logger.Log(ctx).With(zap.String("component", "offline_queue"))

	if !q.draining.CompareAndSwap(false, true) {
		log.Debug(ctx, LogDrainSkipped)
		return DrainResult{}, domain.ErrDrainInProgress
	}
	defer q.draining.Store(false)

	var res DrainResult
	log.Debug(ctx, LogDrainStarted)

	for {
		head, depth, err := q.head(ctx)
		if err != nil {
			return res, err
		}
		if depth == 0 {
			break
		}

		if q.limiter != nil {
			if err := q.limiter.Wait(ctx); err != nil {
				res.Remaining = depth
				return res, fmt.Errorf("wait replay slot: %w", err)
			}
		}

		_, replayErr := replayer.Replay(ctx, head)

		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(replayErr, ctxErr) {
			res.Remaining = depth
			return res, ctxErr
		}
		if replayErr != nil && domain.IsNoResponse(replayErr) {
			res.Offline = true
			res.Remaining = depth
			q.metrics.Replayed(metrics.OutcomeOffline, depth)
			log.Info(ctx, LogDrainStopped, zap.String("queued_id", head.ID), zap.Int("remaining", depth))
			return res, nil
		}

		left, err := q.removeHead(ctx, head.ID)
		if err != nil {
			res.Remaining = depth
			return res, err
		}

		if replayErr != nil {
			res.Rejected++
			q.metrics.Replayed(metrics.OutcomeRejected, left)
			log.Warn(ctx, LogReplayRejected, zap.String("queued_id", head.ID), zap.Error(replayErr))
		} else {
			res.Delivered++
			q.metrics.Replayed(metrics.OutcomeDelivered, left)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Remaining = left
			return res, ctxErr
		}
	}

	log.Info(ctx, LogDrainFinished,
		zap.Int("delivered", res.Delivered),
		zap.Int("rejected", res.Rejected))
	return res, nil
}

func (q *Queue) head(ctx context.Context) (entities.QueuedRequest, int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil {
		return entities.QueuedRequest{}, 0, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	if len(items) == 0 {
		return entities.QueuedRequest{}, 0, nil
	}
	return items[0], len(items), nil
}

// removeHead удаляет голову, если это все еще запрос id. Enqueue только добавляет
// в хвост, поэтому голова меняется лишь здесь.
func (q *Queue) removeHead(ctx context.Context, id string) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrLoadQueue, err)
	}
	if len(items) == 0 || items[0].ID != id {
		return len(items), ErrHeadChanged
	}
	items = items[1:]
	if err := q.store.Save(ctx, items); err != nil {
		return len(items) + 1, fmt.Errorf("%s: %w", ErrSaveQueue, err)
	}
	return len(items), nil
}
