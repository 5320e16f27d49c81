package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

const shutdownTimeout = 10 * time.Second

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

	resultRepo, closeResults, err := newResultRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err := closeResults(); err != nil {
			log.Error("could not close results storage", "error", err)
		}
	}()

	rooms := registry.New()
	broadcaster := service.NewBroadcaster(logger, rooms)
	gameManager := usecase.NewGameManager(logger, rooms, broadcaster, resultRepo)
	wsServer := websocket.New(ctx, logger, gameManager, conf.AllowedOrigins)

	router := rest.NewRouter(logger, rest.Options{
		RateLimit:      conf.RateLimit,
		AllowedOrigins: conf.AllowedOrigins,
	}, wsServer.ServeJoin, gameManager, resultRepo)

	srv := &http.Server{
		Addr:              conf.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "addr", srv.Addr, "results_storage", conf.Results.Storage)
		if httpErr := srv.ListenAndServe(); httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

// newResultRepository - picks the match results backend from config.
func newResultRepository(ctx context.Context, conf *config.Config) (repository.ResultRepository, func() error, error) {
	if conf.Results.Storage != config.StorageRedis {
		return repository.NewMemoryResultRepository(conf.Results.HistoryLimit), func() error { return nil }, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	return repository.NewResultRepository(redisStorage.Connection, conf.Results.HistoryLimit), redisStorage.Close, nil
}
