package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/internal/analytics"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/config"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/logging"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/repository/memory"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/repository/postgres"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/repository/redis"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/schedule"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/dispatch"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/service/game"
	transportHttp "github.com/iamasit07/4-in-a-row/gamecore/internal/transport/http"
	"github.com/iamasit07/4-in-a-row/gamecore/internal/transport/websocket"
	"github.com/iamasit07/4-in-a-row/gamecore/pkg/auth"
)

const (
	shutdownTimeout = 30 * time.Second
	persistDrain    = 10 * time.Second
)

func main() {
	envErr := godotenv.Load()
	if envErr != nil {
		envErr = godotenv.Load("../.env")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		// logger config is not known yet
		zap.NewExample().Fatal("Invalid configuration", zap.Error(err))
	}

	logger := logging.New(cfg.Log)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	if envErr != nil {
		logger.Info("No .env file found")
	}

	// 1. Persistence
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	recorder, err := game.NewAsyncRecorder(store, logger,
		game.WithWorkers(cfg.PersistWorkers),
		game.WithRetries(cfg.PersistRetries))
	if err != nil {
		logger.Fatal("Failed to start persistence pool", zap.Error(err))
	}

	// 2. Analytics
	var publisher analytics.Publisher = analytics.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := analytics.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.Fatal("Failed to create kafka producer", zap.Strings("brokers", cfg.KafkaBrokers), zap.Error(err))
		}
		publisher = kafka
	}

	// 3. Game engine
	sched := schedule.New(clock.New(), logger)
	connManager := websocket.NewConnectionManager(logger)
	dispatcher := dispatch.New(sched, connManager, recorder, publisher, logger, dispatch.Config{
		QueueTimeout: cfg.MatchmakingTimeout(),
		Grace:        cfg.ReconnectGrace(),
		BotDelayMin:  cfg.BotDelayMin(),
		BotDelayMax:  cfg.BotDelayMax(),
		BotDepth:     cfg.BotSearchDepth,
	})

	// 4. Transport
	var tokens *auth.TokenManager
	if cfg.JWTSecret != "" {
		tokens = auth.NewTokenManager(cfg.JWTSecret)
	}
	wsHandler := websocket.NewHandler(connManager, dispatcher, cfg.Origins(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := transportHttp.NewRouter(wsHandler, dispatcher, transportHttp.RouterConfig{
		Origins: cfg.Origins(),
		Tokens:  tokens,
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreBackend),
			zap.Bool("jwt", tokens != nil),
			zap.Bool("kafka", len(cfg.KafkaBrokers) > 0))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	connManager.CloseAll()
	dispatcher.Shutdown()

	if err := recorder.Close(persistDrain); err != nil {
		logger.Warn("Persistence pool did not drain in time", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("Analytics publisher closed with errors", zap.Error(err))
	}
	logger.Info("Server exited")
}

// openStore returns the configured backend and a function that releases it.
func openStore(cfg *config.Config, logger *zap.Logger) (game.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := postgres.Open(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Running database migrations...")
		if err := postgres.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewGameRepo(db), func() { _ = db.Close() }, nil

	case config.StoreRedis:
		client, err := redis.NewClient(cfg.RedisURL, cfg.RedisPassword, logger)
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStore(client), func() { _ = client.Close() }, nil

	default:
		return memory.NewStore(), func() {}, nil
	}
}
