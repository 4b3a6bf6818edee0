package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	drepo "AgriPulse/internal/domain/repository"
	"AgriPulse/internal/handler/api"
	"AgriPulse/internal/usecase"
	pkgch "AgriPulse/pkg/clickhouse"
	"AgriPulse/pkg/config"
	xhttp "AgriPulse/pkg/http"
	pkgkafka "AgriPulse/pkg/kafka"
	"AgriPulse/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP server, scheduled
// dataset rebuilds, and the optional Kafka consumer.
type App struct {
	cfg       *config.Config
	log       *logger.Logger
	handler   xhttp.Handler
	hub       *api.StreamHub
	builder   *usecase.DatasetBuilder
	consumer  *pkgkafka.Consumer
	kh        pkgkafka.MessageHandler
	chClient  *pkgch.Client
	publisher drepo.Publisher

	httpServer *xhttp.Server
	scheduler  *cron.Cron
}

// New creates the App with all dependencies.
func New(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	hub *api.StreamHub,
	builder *usecase.DatasetBuilder,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	publisher drepo.Publisher,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		hub:       hub,
		builder:   builder,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		publisher: publisher,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.startBuilder(ctx)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", logger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", logger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}
	a.log.Info("http server started", logger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startBuilder runs an initial dataset build and schedules rebuilds.
func (a *App) startBuilder(ctx context.Context) {
	if a.builder == nil || len(a.cfg.Dataset.Pairs) == 0 {
		a.log.Info("no dataset pairs configured, builder idle")
		return
	}

	go func() {
		if err := a.builder.BuildAll(ctx); err != nil {
			a.log.Error("initial dataset build failed", logger.Error(err))
		}
	}()

	if a.cfg.Dataset.RefreshCron == "" {
		return
	}
	a.scheduler = cron.New()
	_, err := a.scheduler.AddFunc(a.cfg.Dataset.RefreshCron, func() {
		if err := a.builder.BuildAll(ctx); err != nil {
			a.log.Error("scheduled dataset build failed", logger.Error(err))
		}
	})
	if err != nil {
		a.log.Error("invalid refresh schedule",
			logger.String("cron", a.cfg.Dataset.RefreshCron),
			logger.Error(err))
		return
	}
	a.scheduler.Start()
	a.log.Info("dataset refresh scheduled", logger.String("cron", a.cfg.Dataset.RefreshCron))
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
