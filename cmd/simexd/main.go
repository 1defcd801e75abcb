// Command simexd runs a simulated exchange and serves its read-only API.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openmkt/simex/config"
	"github.com/openmkt/simex/internal/agent"
	"github.com/openmkt/simex/internal/api"
	"github.com/openmkt/simex/internal/api/handlers"
	"github.com/openmkt/simex/internal/api/routes"
	"github.com/openmkt/simex/internal/exchange"
	"github.com/openmkt/simex/internal/logging"
	"github.com/openmkt/simex/internal/num"
	"github.com/openmkt/simex/internal/sim"
	"github.com/openmkt/simex/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	journal, err := buildJournal(cfg, log)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer journal.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ex := exchange.NewExchange(cfg.Simulation.ExchangeName)
	s := sim.New(ex, journal, cfg.Simulation.TickInterval, log)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Info("simulation starting",
		zap.String("exchange", cfg.Simulation.ExchangeName),
		zap.String("security", cfg.Simulation.Security),
		zap.Duration("tick", cfg.Simulation.TickInterval),
		zap.Int64("seed", seed),
	)

	addTraders(s, cfg.Simulation, rng)

	s.Start(ctx)

	holder := handlers.NewSimHolder(s, handlers.Limits{
		DefaultTradeLimit: cfg.API.DefaultTradeLimit,
		MaxTradeLimit:     cfg.API.MaxTradeLimit,
		MaxBookDepth:      cfg.API.MaxBookDepth,
	}, log)
	server := api.NewServer(":"+cfg.Server.Port, routes.Setup(holder, log), api.Timeouts{
		Read:  cfg.Server.ReadTimeout,
		Write: cfg.Server.WriteTimeout,
		Idle:  cfg.Server.IdleTimeout,
	}, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		stop()
		s.Wait()
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	s.Wait()
	return nil
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Path != "" {
		return logging.NewLoggerWithFile(level, cfg.Path)
	}
	return logging.NewLogger(level)
}

// buildJournal stacks every enabled trade store behind a single composite:
// the in-memory ring always, then the trade log file, then Redis and
// PostgreSQL when configured. Reads come from the first store, so the ring
// serves the API without touching the network.
func buildJournal(cfg *config.Config, log *zap.Logger) (storage.TradeStore, error) {
	stores := []storage.TradeStore{storage.NewMemoryTradeStore(cfg.Memory.MaxTrades)}

	file, err := storage.NewFileTradeStore(cfg.Simulation.TradeLogPath)
	if err != nil {
		return nil, err
	}
	stores = append(stores, file)

	if cfg.Redis.Enabled {
		redis, err := storage.NewRedisTradeStore(storage.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			TLSEnabled:   cfg.Redis.TLSEnabled,
			MaxTrades:    cfg.Redis.MaxTrades,
		})
		if err != nil {
			return nil, err
		}
		log.Info("redis journal enabled", zap.String("host", cfg.Redis.Host))
		stores = append(stores, redis)
	}

	if cfg.Database.Enabled {
		pg, err := storage.NewPostgresTradeStore(storage.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConns:        cfg.Database.MaxConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			SSLMode:         cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		log.Info("postgres journal enabled", zap.String("host", cfg.Database.Host))
		stores = append(stores, pg)
	}

	return storage.NewCompositeTradeStore(stores...), nil
}

// addTraders populates the market: a trend for prices to follow, a spread
// trader quoting around it, and a crowd of random takers crossing the
// quotes.
func addTraders(s *sim.Simulation, cfg config.SimulationConfig, rng *rand.Rand) {
	span := num.Span{Min: cfg.PriceFloor, Max: cfg.PriceCeiling}
	duration := cfg.Duration
	trend := sim.NewTrend(func(t float64) float64 {
		return sim.Exponential(min(t, duration), duration, span)
	}, 0, rng)
	s.OnTick(func(now int64) { trend.Step(1) })

	mm := agent.NewSpreadTrader("maker", cfg.Security, 1e9, 100, 0.05)
	mm.Reference = trend.Price
	s.AddTrader(mm)

	for i := 0; i < cfg.RandomBots; i++ {
		bot := agent.NewRandomTrader(
			fmt.Sprintf("bot-%d", i), cfg.Security, 1e6, 10, 0.25,
			rand.New(rand.NewSource(rng.Int63())),
		)
		bot.Reference = trend.Price
		s.AddTrader(bot)
	}
}
