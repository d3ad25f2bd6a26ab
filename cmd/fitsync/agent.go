package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fitsync/internal/client/adapters/auth"
	"fitsync/internal/client/adapters/connectivity"
	"fitsync/internal/client/adapters/interceptor"
	"fitsync/internal/client/adapters/queue"
	"fitsync/internal/client/adapters/refresh"
	"fitsync/internal/client/app"
	"fitsync/internal/client/config"
	"fitsync/internal/client/domain/entities"
	domain "fitsync/internal/client/domain/services"
	"fitsync/internal/client/metrics"
	"fitsync/internal/client/ports/services"
	"fitsync/pkg/logger"
	"fitsync/pkg/shutdown"
)

const (
	LogSessionRestored   = "session restored from storage"
	LogLoggingIn         = "logging in with configured account"
	LogSessionEnded      = "session ended"
	LogForegroundSignal  = "foreground signal received"
	LogSubscriptionCheck = "subscription status"
	LogMetricsListening  = "metrics endpoint listening"
	LogStoppingMetrics   = "stopping metrics endpoint"
	LogStoppingSyncer    = "stopping sync triggers"

	ErrOpenBackend       = "failed to open backend"
	ErrLogin             = "login failed"
	ErrScheduleTriggers  = "failed to schedule triggers"
	ErrMetricsServer     = "metrics server failed"
	ErrSubscriptionCheck = "subscription check failed"
)

// configPasswords отдает пароль из конфигурации для повторного входа без refresh токена.
type configPasswords struct {
	email    string
	password string
}

func (p configPasswords) Password(_ context.Context, email string) (string, error) {
	if p.password == "" || email != p.email {
		return "", domain.ErrNoCredential
	}
	return p.password, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Log(ctx)

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrOpenBackend, err)
	}

	m := metrics.New()
	transport := &http.Client{}

	authClient := auth.NewHTTPClient(cfg.API.BaseURL, transport,
		auth.WithPaths(cfg.API.LoginPath, cfg.API.RefreshPath),
		auth.WithPasswordProvider(configPasswords{email: cfg.API.Email, password: cfg.API.Password}),
	)

	var session *app.Session
	coordinator := refresh.NewCoordinator(be.credentials, authClient,
		refresh.WithMetrics(m),
		refresh.WithTimeout(cfg.API.RefreshTimeout),
		refresh.WithSessionListener(services.SessionListenerFunc(func(ctx context.Context, event entities.SessionEvent) {
			session.OnSessionEnded(ctx, event)
		})),
	)
	session = app.NewSession(authClient, coordinator)
	session.Subscribe(services.SessionListenerFunc(func(ctx context.Context, event entities.SessionEvent) {
		logger.Log(ctx).Warn(ctx, LogSessionEnded,
			zap.String("reason", string(event.Reason)),
			zap.String("message", event.Message),
			zap.Error(event.Err))
	}))

	device := &interceptor.StaticContext{Device: entities.DeviceContext{
		Locale:      cfg.Device.Locale,
		NetworkType: cfg.Device.NetworkType,
		BundleID:    cfg.Device.BundleID,
		AppVersion:  cfg.Device.AppVersion,
		OSName:      cfg.Device.OSName,
		OSVersion:   cfg.Device.OSVersion,
	}}
	decorator := interceptor.NewHeaderDecorator(coordinator, device)

	monitor := connectivity.NewMonitor(
		&http.Client{Transport: &interceptor.Transport{Decorator: decorator}},
		cfg.API.URL(cfg.API.HealthPath),
		connectivity.WithInterval(cfg.Connectivity.ProbeInterval),
		connectivity.WithTimeout(cfg.Connectivity.ProbeTimeout),
		connectivity.WithNetworkType(cfg.Device.NetworkType),
		connectivity.WithMetrics(m),
	)
	device.Network = monitor

	offline := queue.New(be.queue,
		queue.WithReplayRate(cfg.Queue.ReplayRate, cfg.Queue.ReplayBurst),
		queue.WithMetrics(m),
	)

	client := app.NewClient(cfg.API.BaseURL, transport, decorator, coordinator, offline,
		app.WithRequestTimeout(cfg.API.RequestTimeout),
		app.WithClientMetrics(m),
	)

	checker := app.NewSubscriptionChecker(client, be.cache,
		app.WithSubscriptionPath(cfg.Subscription.Path),
		app.WithCheckInterval(cfg.Subscription.CheckInterval),
	)
	session.Attach(checker)

	syncer := app.NewSyncer(client, checker)
	if err := syncer.Schedule(cfg.Queue.DrainSchedule, cfg.Subscription.Schedule); err != nil {
		_ = be.shutdownHook(ctx)
		return fmt.Errorf("%s: %w", ErrScheduleTriggers, err)
	}
	monitor.Subscribe(syncer)

	if session.Authenticated(ctx) {
		log.Info(ctx, LogSessionRestored)
	} else if cfg.API.Email != "" {
		log.Info(ctx, LogLoggingIn, zap.String("email", cfg.API.Email))
		if _, err := session.Login(ctx, cfg.API.Email, cfg.API.Password); err != nil {
			log.Warn(ctx, ErrLogin, zap.Error(err))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error { return monitor.Run(gctx) })
	g.Go(func() error {
		foregroundLoop(gctx, syncer, checker)
		return nil
	})

	var metricsServer *http.Server
	if cfg.Metrics.Address != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info(gctx, LogMetricsListening, zap.String("address", cfg.Metrics.Address))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: %w", ErrMetricsServer, err)
			}
			return nil
		})
	}

	syncer.Start(gctx)

	shutdownErr := shutdown.Wait(gctx, cfg.Shutdown.Timeout,
		func(ctx context.Context) error {
			log.Info(ctx, LogStoppingSyncer)
			return syncer.Stop(ctx)
		},
		func(ctx context.Context) error {
			if metricsServer == nil {
				return nil
			}
			log.Info(ctx, LogStoppingMetrics)
			return metricsServer.Shutdown(ctx)
		},
	)
	cancel()

	groupErr := g.Wait()
	if errors.Is(groupErr, context.Canceled) {
		groupErr = nil
	}

	return errors.Join(groupErr, shutdownErr, be.shutdownHook(ctx))
}

// foregroundLoop переводит SIGUSR1 в событие перехода на передний план, а SIGUSR2
// в принудительную проверку подписки.
func foregroundLoop(ctx context.Context, syncer *app.Syncer, checker *app.SubscriptionChecker) {
	log := logger.Log(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			if sig == syscall.SIGUSR1 {
				log.Info(ctx, LogForegroundSignal)
				syncer.OnForeground(ctx)
				continue
			}
			status, err := checker.Check(ctx, true)
			if err != nil {
				log.Warn(ctx, ErrSubscriptionCheck, zap.Error(err))
				continue
			}
			log.Info(ctx, LogSubscriptionCheck,
				zap.String("status", string(status.State)),
				zap.Bool("access", status.HasAccess()))
		}
	}
}
