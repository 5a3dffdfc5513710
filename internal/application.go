package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/arcade/internal/config"
	"github.com/rocketscienceinc/arcade/internal/repository"
	"github.com/rocketscienceinc/arcade/internal/repository/storage"
	"github.com/rocketscienceinc/arcade/internal/settle"
	"github.com/rocketscienceinc/arcade/internal/usecase"
	"github.com/rocketscienceinc/arcade/transport/rest"
	"github.com/rocketscienceinc/arcade/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	tableRepo, closeStorage, err := newTableRepository(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	// Tables live only as long as the process.
	if err = tableRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("could not clear stale tables: %w", err)
	}

	scheduler := settle.NewScheduler()
	defer scheduler.Stop()

	hub := websocket.NewHub(logger)
	defer hub.Close()

	tableManager := usecase.NewTableManager(logger, tableRepo, hub, scheduler, conf.SettleDelay)

	wsServer := websocket.New(logger, hub, tableManager, conf.CORS.AllowedOrigins)
	router := rest.NewRouter(rest.NewHandlers(logger, tableManager), wsServer.ServeTable, conf.CORS.AllowedOrigins)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage)
		httpErrCh <- rest.Start(ctx, conf.HTTPPort, router)
	}()

	select {
	case err = <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	if err = <-httpErrCh; err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

func newTableRepository(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.TableRepository, func(), error) {
	if conf.Storage != config.StorageRedis {
		return repository.NewMemoryTableRepository(), func() {}, nil
	}

	if conf.Redis.Host == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			logger.Error("could not close redis storage", "error", err)
		}
	}

	return repository.NewTableRepository(redisStorage, conf.TableTTL), closeStorage, nil
}
