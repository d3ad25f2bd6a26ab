package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"fitsync/internal/client/adapters/queue"
	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/resilience"
	"fitsync/pkg/logger"
)

// Триггеры разбора очереди.
const (
	TriggerForeground   = "foreground"
	TriggerReachability = "reachability"
	TriggerSchedule     = "schedule"
	TriggerManual       = "manual"
)

const (
	LogDrainTriggered   = "offline queue drain triggered"
	LogDrainDone        = "offline queue drain done"
	LogDrainBusy        = "offline queue drain skipped, already running"
	LogDrainError       = "offline queue drain failed"
	LogScheduledSkipped = "scheduled drain suppressed while backend is unreachable"
	LogSubscriptionFail = "scheduled subscription check failed"
	LogCronJob          = "cron job"

	ErrScheduleDrain        = "schedule offline queue drain"
	ErrScheduleSubscription = "schedule subscription check"
)

var errStillOffline = errors.New("offline queue drain stopped without response")

// QueueDrainer разбирает офлайн-очередь. Реализуется Client.
type QueueDrainer interface {
	DrainQueue(ctx context.Context, trigger string) (queue.DrainResult, error)
}

// SubscriptionSource проверяет статус подписки. Реализуется SubscriptionChecker.
type SubscriptionSource interface {
	Check(ctx context.Context, force bool) (entities.SubscriptionStatus, error)
}

// Syncer запускает разбор очереди по событиям жизненного цикла приложения
// и по расписанию.
type Syncer struct {
	drainer      QueueDrainer
	subscription SubscriptionSource
	breaker      *resilience.CircuitBreaker
	cron         *cron.Cron

	base      context.Context
	reachable atomic.Bool
	wg        sync.WaitGroup
}

// NewSyncer создает Syncer. subscription может быть nil.
func NewSyncer(drainer QueueDrainer, subscription SubscriptionSource) *Syncer {
	breaker := resilience.DefaultCircuitBreakerConfig()
	breaker.ErrorThreshold = 3
	breaker.IsFailure = func(err error) bool { return errors.Is(err, errStillOffline) }

	return &Syncer{
		drainer:      drainer,
		subscription: subscription,
		breaker:      resilience.NewCircuitBreaker("scheduled-drain", breaker),
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{}),
			cron.SkipIfStillRunning(cronLogger{}),
		)),
		base: context.Background(),
	}
}

// OnForeground вызывается при переходе приложения на передний план.
func (s *Syncer) OnForeground(ctx context.Context) {
	s.async(ctx, TriggerForeground)
}

// OnReachabilityChanged вызывается при изменении доступности сети. Разбор
// запускается только при переходе из недоступного состояния в доступное.
func (s *Syncer) OnReachabilityChanged(ctx context.Context, reachable bool) {
	was := s.reachable.Swap(reachable)
	if reachable && !was {
		s.async(ctx, TriggerReachability)
	}
}

// Drain синхронно разбирает очередь.
func (s *Syncer) Drain(ctx context.Context, trigger string) (queue.DrainResult, error) {
	log := logger.Log(ctx).With(zap.String("component", "syncer"), zap.String("trigger", trigger))
	log.Debug(ctx, LogDrainTriggered)

	res, err := s.drainer.DrainQueue(ctx, trigger)
	switch {
	case errors.Is(err, domain.ErrDrainInProgress):
		log.Debug(ctx, LogDrainBusy)
		return res, nil
	case err != nil:
		log.Warn(ctx, LogDrainError, zap.Error(err))
		return res, err
	}

	log.Info(ctx, LogDrainDone,
		zap.Int("delivered", res.Delivered),
		zap.Int("rejected", res.Rejected),
		zap.Int("remaining", res.Remaining),
		zap.Bool("offline", res.Offline))
	return res, nil
}

// Schedule регистрирует периодический разбор очереди и проверку подписки.
// Пустое выражение отключает соответствующую задачу.
func (s *Syncer) Schedule(drainSpec, subscriptionSpec string) error {
	if drainSpec != "" {
		if _, err := s.cron.AddFunc(drainSpec, s.scheduledDrain); err != nil {
			return fmt.Errorf("%s: %w", ErrScheduleDrain, err)
		}
	}
	if subscriptionSpec != "" && s.subscription != nil {
		if _, err := s.cron.AddFunc(subscriptionSpec, s.scheduledSubscription); err != nil {
			return fmt.Errorf("%s: %w", ErrScheduleSubscription, err)
		}
	}
	return nil
}

// Start запускает планировщик. ctx используется задачами, запущенными позже.
func (s *Syncer) Start(ctx context.Context) {
	s.base = ctx
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения запущенных разборов.
func (s *Syncer) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Syncer) async(ctx context.Context, trigger string) {
	dctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.Drain(dctx, trigger)
	}()
}

func (s *Syncer) scheduledDrain() {
	ctx := s.base
	err := s.breaker.Execute(ctx, func() error {
		res, err := s.Drain(ctx, TriggerSchedule)
		if err == nil && res.Offline {
			return errStillOffline
		}
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		logger.Log(ctx).Debug(ctx, LogScheduledSkipped)
	}
}

func (s *Syncer) scheduledSubscription() {
	ctx := s.base
	if _, err := s.subscription.Check(ctx, false); err != nil {
		logger.Log(ctx).Warn(ctx, LogSubscriptionFail, zap.Error(err))
	}
}

// cronLogger направляет журнал планировщика в глобальный логгер.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	ctx := context.Background()
	logger.Log(ctx).Debug(ctx, LogCronJob, zap.String("event", msg), zap.Any("details", keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	ctx := context.Background()
	logger.Log(ctx).Error(ctx, LogCronJob, zap.String("event", msg), zap.Error(err), zap.Any("details", keysAndValues))
}
