package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rocketscienceinc/tictactoe-client/internal/config"
	"github.com/rocketscienceinc/tictactoe-client/internal/gateway"
	"github.com/rocketscienceinc/tictactoe-client/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository"
	"github.com/rocketscienceinc/tictactoe-client/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-client/internal/service"
	"github.com/rocketscienceinc/tictactoe-client/internal/session"
	"github.com/rocketscienceinc/tictactoe-client/transport/cli"
	"github.com/rocketscienceinc/tictactoe-client/transport/rest"
)

// RunApp - runs the client until the operator quits or a signal arrives.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(registry)

	var gameRepo repository.GameRepository

	if redisAddrString := conf.Redis.GetRedisAddr(); redisAddrString != "" {
		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		gameRepo = repository.NewGameRepository(redisStorage.Connection, conf.Redis.CacheTTL)
		log.Info("snapshot cache enabled", "addr", redisAddrString)
	}

	api := gateway.New(logger, conf.API.BaseURL,
		gateway.WithTimeout(conf.API.RequestTimeout),
		gateway.WithObserver(appMetrics),
	)
	snapshots := service.NewSnapshotService(logger, gameRepo, api, appMetrics)

	controller := session.New(logger, api,
		session.WithTimeout(conf.API.RequestTimeout),
		session.WithPollInterval(conf.API.PollInterval),
		session.WithSnapshotLoader(snapshots),
		session.WithObserver(appMetrics),
	)

	loopErrCh := make(chan error, 1)
	go func() {
		loopErrCh <- controller.Run(ctx)
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	if conf.HTTPPort != "" {
		go func() {
			log.Info("Starting HTTP server", "port", conf.HTTPPort)
			if httpErr := rest.New(logger, registry).Start(ctx, conf.HTTPPort); httpErr != nil {
				log.Error("HTTP server error", "error", httpErr)
				httpErrCh <- httpErr
			}
		}()
	}

	if err := controller.Bootstrap(ctx); err != nil {
		log.Warn("initial load incomplete", "error", err)
	}

	// run operator input
	cliErrCh := make(chan error, 1)
	go func() {
		cliErrCh <- cli.New(logger, controller, os.Stdout).Start(ctx, os.Stdin)
	}()

	var err error

	select {
	case err = <-cliErrCh:
		if err != nil {
			err = fmt.Errorf("CLI error: %w", err)
		}
	case err = <-httpErrCh:
		err = fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	cancel()
	<-loopErrCh

	return err
}
