package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"time"

	"github.com/brobot-gg/slots/internal/config"
	"github.com/brobot-gg/slots/internal/discord"
	"github.com/brobot-gg/slots/internal/duel"
	"github.com/brobot-gg/slots/internal/engine"
	"github.com/brobot-gg/slots/internal/jackpot"
	"github.com/brobot-gg/slots/internal/ledger"
	"github.com/brobot-gg/slots/internal/logger"
	"github.com/brobot-gg/slots/internal/scheduler"
	"github.com/brobot-gg/slots/internal/server"
	"github.com/brobot-gg/slots/internal/slots"
	"github.com/brobot-gg/slots/internal/store"
	"github.com/brobot-gg/slots/internal/store/memstore"
	"github.com/brobot-gg/slots/internal/store/redisstore"
	"github.com/brobot-gg/slots/internal/tokenbucket"
	"github.com/brobot-gg/slots/internal/worker"
)

// SweepInterval is the safety-net cadence for expiring stale duels. Per-duel
// timers handle the common case; the sweep catches restarts.
const SweepInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Configuration failed", "error", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "slots",
		Environment: cfg.Environment,
	})

	if warnings, err := config.ValidateEnvWithWarnings(); err != nil {
		slog.Error("Environment validation failed", "error", err)
		os.Exit(1)
	} else {
		for _, w := range warnings {
			slog.Warn(w)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("Invalid timezone", "error", err)
		os.Exit(1)
	}

	st, cleanup, err := newStore(cfg)
	if err != nil {
		slog.Error("Failed to connect to store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	symCfg, err := slots.LoadConfig(cfg.SymbolConfigPath)
	if err != nil {
		slog.Error("Failed to load symbol config", "path", cfg.SymbolConfigPath, "error", err)
		os.Exit(1)
	}
	table, err := symCfg.BuildTable()
	if err != nil {
		slog.Error("Invalid symbol config", "error", err)
		os.Exit(1)
	}
	tables := slots.NewHolder(table)
	scorer := slots.NewScorer(rand.Float64, slots.DefaultJackpotMinMatches)

	bigWinThreshold := symCfg.BigWinThreshold
	if cfg.BigWinThreshold > 0 {
		bigWinThreshold = cfg.BigWinThreshold
	}

	bucket := tokenbucket.NewService(st, cfg.TokenCap, cfg.TokenRefill)
	quota := tokenbucket.NewQuota(st, cfg.PremiumPerDay, loc)
	jackpotSvc := jackpot.NewService(st, cfg.JackpotGrowth)
	ledgerSvc := ledger.NewService(st, cfg.FeedLen, bigWinThreshold)

	eng := engine.NewService(engine.Config{
		SymbolConfigPath: cfg.SymbolConfigPath,
		PremiumBonusMult: cfg.PremiumBonusMult,
		PremiumMinPoints: cfg.PremiumMinPoints,
		PremiumCostFrac:  cfg.PremiumCostFrac,
		JackpotDuelSpins: cfg.JackpotDuelSpins,
		BigWinThreshold:  cfg.BigWinThreshold,
		Location:         loc,
	}, tables, scorer, bucket, quota, jackpotSvc, ledgerSvc, nil)

	duelSvc := duel.NewService(st, ledgerSvc, eng, duel.Config{
		FeeFraction:   cfg.DuelFeeFrac,
		HouseFraction: cfg.DuelHouseFrac,
		Expiry:        cfg.DuelExpiry,
	})
	eng.SetDuelService(duelSvc)

	bot, err := discord.New(discord.Config{
		Token:     cfg.DiscordToken,
		ChannelID: cfg.DiscordChannelID,
	}, eng, ledgerSvc, jackpotSvc, st, tables)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}
	eng.SetRefresher(bot)

	expiryWorker := worker.NewDuelExpiryWorker(duelSvc)
	expiryWorker.Start()
	eng.SetDuelScheduler(expiryWorker)

	pool := worker.NewPool(2, 16)
	pool.Start()
	defer pool.Stop()

	sched := scheduler.New(pool)
	sched.Schedule(SweepInterval, worker.JobFunc(func(ctx context.Context) error {
		_, err := duelSvc.SweepExpired(ctx, time.Now())
		return err
	}))
	defer sched.Stop()

	srv := server.NewServer(cfg.Port, cfg.APIKey, cfg.TrustedProxies, st, eng, ledgerSvc, jackpotSvc)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Admin server stopped", "error", err)
		}
	}()

	// Blocks until SIGINT/SIGTERM
	if err := bot.Run(); err != nil {
		slog.Error("Bot failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := expiryWorker.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Duel expiry worker shutdown incomplete", "error", err)
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		slog.Warn("Admin server shutdown incomplete", "error", err)
	}
}

// newStore picks the backing store. DevMode runs everything in memory so the
// bot works without a Redis instance.
func newStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.DevMode {
		slog.Warn("DEV_MODE enabled, state is in-memory and will not survive restarts")
		return memstore.New(), func() {}, nil
	}

	rs, err := redisstore.New(context.Background(), redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return rs, func() { rs.Close() }, nil
}
