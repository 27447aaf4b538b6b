// Package app builds the service graph from configuration. Both binaries
// use it so the notifier and the operator CLI run identical components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/powerwatch/outage-notifier/internal/cache"
	"github.com/powerwatch/outage-notifier/internal/config"
	"github.com/powerwatch/outage-notifier/internal/db"
	"github.com/powerwatch/outage-notifier/internal/metrics"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/profile"
	"github.com/powerwatch/outage-notifier/internal/schedule"
	"github.com/powerwatch/outage-notifier/internal/source"
	"github.com/powerwatch/outage-notifier/internal/store"
	"github.com/powerwatch/outage-notifier/internal/telegram"
)

// Store is everything the service needs from persistence.
type Store interface {
	notifications.FingerprintStore
	notifications.HandleStore
	notifications.SubscriberStore
	profile.LocalSource
	Settings(ctx context.Context, userID int64) (*store.Settings, error)
	SetNotifications(ctx context.Context, userID int64, enabled bool) error
	SetManualGroup(ctx context.Context, userID int64, group schedule.GroupCode, label string) error
	SetPrimaryAddress(ctx context.Context, userID int64, a store.Address) error
	Cleanup(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

type Options struct {
	// DryRun logs messages instead of sending them and does not require
	// BOT_TOKEN.
	DryRun bool
}

// App holds the wired components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Store     Store
	Parser    *schedule.Parser
	Source    *source.Client
	Cache     cache.ReportingStore
	Documents *source.CachedFetcher
	Resolver  *profile.Resolver
	Engine    *notifications.Engine

	closers []func()
}

// New connects backends and wires the engine. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(a.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.Metrics = m

	var sender notifications.Sender
	if opts.DryRun {
		logger.Warn("Dry run: messages are logged, not sent")
		sender = notifications.NewLogSender(logger)
	} else {
		if err := cfg.RequireBotToken(); err != nil {
			return nil, err
		}
		bot, err := telegram.NewClient(cfg.TelegramAPIBase, cfg.BotToken, cfg.SourceTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect bot: %w", err)
		}
		logger.Info("Bot connected", "username", bot.Username())
		sender = bot
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	docCache, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	a.Cache = docCache

	vocab, err := schedule.VocabularyFor(cfg.ScheduleLocale)
	if err != nil {
		return nil, err
	}
	a.Parser = schedule.NewParser(vocab)

	a.Source = source.NewClient(source.Options{
		MainBaseURL:       cfg.MainAPIBase,
		PowerBaseURL:      cfg.PowerAPIBase,
		Timeout:           cfg.SourceTimeout,
		RequestsPerMinute: cfg.SourceRatePerMinute,
		Parser:            a.Parser,
		Location:          cfg.Location,
		Logger:            logger,
	})
	a.Documents = source.NewCachedFetcher(a.Source, docCache, cfg.CacheTTL, logger)

	var providers []profile.Provider
	if cfg.FirebaseDatabaseURL != "" {
		providers = append(providers, profile.NewFirebase(cfg.FirebaseDatabaseURL, cfg.ProfileTimeout))
	}
	providers = append(providers, profile.NewLocal(a.Store))
	a.Resolver = profile.NewResolver(logger, providers...)

	a.Engine = notifications.NewEngine(notifications.Deps{
		Source:      a.Source,
		Cache:       a.Documents,
		Parser:      a.Parser,
		Detector:    notifications.NewDetector(a.Store),
		Dispatcher:  notifications.NewDispatcher(sender, a.Store, cfg.SendInterval, logger, a.Metrics),
		Resolver:    a.Resolver,
		Subscribers: a.Store,
		SyncTime:    a.Source.SyncTime,
		Logger:      logger,
		Metrics:     a.Metrics,
		Location:    cfg.Location,
	})

	ok = true
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	cfg := a.Config
	if cfg.StoreBackend == config.StoreMemory {
		a.Logger.Warn("Using in-memory store; state is lost on restart")
		a.Store = store.NewMemory()
		return nil
	}

	if cfg.AutoMigrate {
		applied, err := db.Migrate(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(applied) > 0 {
			a.Logger.Info("Applied migrations", "files", applied)
		}
	}

	a.Logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	a.Logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	a.Store = store.NewPostgres(pool)
	return nil
}

func (a *App) openCache(ctx context.Context) (cache.ReportingStore, error) {
	cfg := a.Config
	if cfg.CacheBackend == config.CacheRedis {
		rc := cache.NewRedis(cache.DialRedis(cfg.RedisAddr, cfg.RedisPassword), "outage", a.Logger)
		a.closers = append(a.closers, func() { _ = rc.Close() })
		if err := rc.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
		}
		a.Logger.Info("Cache initialized", "backend", "redis", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		return rc, nil
	}

	mc := cache.NewMemory(time.Minute)
	a.closers = append(a.closers, func() { _ = mc.Close() })
	a.Logger.Info("Cache initialized", "backend", "memory", "ttl", cfg.CacheTTL)
	return mc, nil
}

// Triggers are the configured digest passes.
func (a *App) Triggers() []notifications.DigestTrigger {
	var out []notifications.DigestTrigger
	for _, t := range []struct {
		at   string
		mode notifications.PassMode
	}{
		{a.Config.DigestMorning, notifications.ModeDigestToday},
		{a.Config.DigestEvening, notifications.ModeDigestTomorrow},
	} {
		if t.at == "" {
			continue
		}
		at, err := schedule.ParseTimeOfDay(t.at)
		if err != nil {
			// config.Load validated these.
			continue
		}
		out = append(out, notifications.DigestTrigger{At: at, Mode: t.mode})
	}
	return out
}

// Scheduler builds the polling loop over the engine.
func (a *App) Scheduler() *notifications.Scheduler {
	return notifications.NewScheduler(a.Engine, notifications.SchedulerConfig{
		Interval: a.Config.CheckInterval,
		Triggers: a.Triggers(),
		Location: a.Config.Location,
	}, a.Logger)
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
