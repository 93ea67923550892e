package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nidhogg/forecast-facts/internal/api"
	"github.com/nidhogg/forecast-facts/internal/bus"
	"github.com/nidhogg/forecast-facts/internal/config"
	"github.com/nidhogg/forecast-facts/internal/dispatch"
	"github.com/nidhogg/forecast-facts/internal/facts"
	"github.com/nidhogg/forecast-facts/internal/mcp"
	"github.com/nidhogg/forecast-facts/internal/metrics"
	"github.com/nidhogg/forecast-facts/internal/store"
)

func main() {
	_ = godotenv.Load()

	boot, _ := zap.NewDevelopment()

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/forecast.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			boot.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
		}
		boot.Warn("config file not found, using defaults", zap.String("path", cfgPath))
		cfg = config.Default()
	}

	logger, err := newLogger(cfg.Server.LogLevel)
	if err != nil {
		boot.Fatal("invalid log level", zap.String("level", cfg.Server.LogLevel), zap.Error(err))
	}
	defer logger.Sync()
	logger.Info("Starting forecast facts service...", zap.String("config", cfgPath))

	ctx := context.Background()

	// Load the dataset
	reg, pgStore, err := loadRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to load dataset", zap.String("source", cfg.Dataset.Source), zap.Error(err))
	}
	events, gdp := reg.Counts()
	logger.Info("Dataset loaded",
		zap.String("source", cfg.Dataset.Source),
		zap.Int("events", events),
		zap.Int("gdp_records", gdp),
		zap.Ints("years", reg.Years()))

	m := metrics.New()
	m.SetDatasetSize(events, gdp)

	d := dispatch.New(reg, logger)
	d.SetMetrics(m)

	handler := api.NewHandler(d, m, cfg.MCP.Name, cfg.MCP.Version, logger)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(mcp.ServerConfig{
			Name:    cfg.MCP.Name,
			Version: cfg.MCP.Version,
			Path:    cfg.MCP.Path,
		}, d, logger)
		handler.MountMCP(mcpServer.Path(), mcpServer.Handler())
		logger.Info("MCP endpoint enabled", zap.String("path", mcpServer.Path()))
	}

	// Start the Redis Streams consumer
	busCtx, stopBus := context.WithCancel(ctx)
	busDone := make(chan struct{})
	var b *bus.Bus
	if cfg.Bus.Enabled {
		b, err = bus.New(cfg.Database.Redis.URL, cfg.Bus.Stream, cfg.Bus.Group, logger)
		if err != nil {
			logger.Fatal("failed to connect bus", zap.Error(err))
		}
		go func() {
			defer close(busDone)
			if err := b.Serve(busCtx, d); err != nil {
				logger.Error("bus consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(busDone)
	}

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Forecast facts listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down forecast facts service...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	stopBus()
	<-busDone
	if b != nil {
		b.Close()
	}
	if pgStore != nil {
		pgStore.Close()
	}
}

// loadRegistry builds the registry from the configured source. The returned
// store is nil unless the source is postgres.
func loadRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*facts.Registry, *store.Store, error) {
	switch cfg.Dataset.Source {
	case config.SourceFile:
		ds, err := facts.LoadFile(cfg.Dataset.Path)
		if err != nil {
			return nil, nil, err
		}
		reg, err := facts.NewRegistry(ds)
		return reg, nil, err

	case config.SourcePostgres:
		s, err := store.New(ctx, cfg.Database.Postgres.DSN, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Migrate(ctx, cfg.Dataset.MigrationsDir); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		seeded, err := s.Seed(ctx, facts.Builtin())
		if err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
		if seeded {
			logger.Info("Seeded empty database with built-in dataset")
		}
		ds, err := s.LoadDataset(ctx)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		reg, err := facts.NewRegistry(ds)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		return reg, s, nil

	default:
		reg, err := facts.NewRegistry(facts.Builtin())
		return reg, nil, err
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}
