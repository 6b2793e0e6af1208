// Package app wires the configuration, storage, Discord session and the
// operational HTTP server into one runnable process.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/fixembed/fixembed-bot/internal/bot"
	"github.com/fixembed/fixembed-bot/internal/config"
	"github.com/fixembed/fixembed-bot/internal/delivery"
	"github.com/fixembed/fixembed-bot/internal/fixer"
	"github.com/fixembed/fixembed-bot/internal/httpserver"
	"github.com/fixembed/fixembed-bot/internal/i18n"
	"github.com/fixembed/fixembed-bot/internal/logger"
	"github.com/fixembed/fixembed-bot/internal/metrics"
	"github.com/fixembed/fixembed-bot/internal/services"
	"github.com/fixembed/fixembed-bot/internal/settings"
	"github.com/fixembed/fixembed-bot/internal/storage"
	"github.com/fixembed/fixembed-bot/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	backend storage.Storage
	store   *settings.Store
	bot     *bot.Bot
	server  *httpserver.Server // nil when OPS_ADDR is empty
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	backend, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	store := settings.New(backend, services.Names(),
		settings.WithRetry(cfg.StoreRetryAttempts, cfg.StoreRetryDelay),
		settings.WithLanguages(i18n.Supported),
		settings.WithLogger(log.With(logger.String("component", "settings"))),
		settings.WithMetrics(collector),
	)
	if err := store.Load(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	messenger := delivery.Limited(bot.NewMessenger(session), delivery.NewLimiter(cfg.SendLimit, cfg.SendWindow))
	exec := delivery.NewExecutor(messenger, log.With(logger.String("component", "delivery")), collector)
	fx := fixer.New(store, exec, log.With(logger.String("component", "fixer")), collector)

	b := bot.New(session, store, fx, log.With(logger.String("component", "bot")), collector, bot.Options{
		OwnerID:         cfg.OwnerID,
		StatusInterval:  cfg.StatusInterval,
		SettingsTimeout: cfg.SettingsTimeout,
		FixEvery:        cfg.FixCommandEvery,
		FixBurst:        cfg.FixCommandBurst,
	})

	a := &App{
		cfg:     cfg,
		logger:  log,
		backend: backend,
		store:   store,
		bot:     b,
	}

	if cfg.OpsAddr != "" {
		a.server = httpserver.New(cfg.OpsAddr, httpserver.Deps{
			Logger:    log.With(logger.String("component", "ops")),
			StartTime: time.Now(),
			Version:   version.Version,
			Commit:    version.Commit,
			GoVersion: version.GoVersion,
			Metrics:   metrics.Handler(reg),
			Checks: map[string]func(context.Context) error{
				"settings": a.settingsLoaded,
				"gateway":  b.Ready,
				"storage":  backend.Ping,
			},
		})
	}

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverRedis:
		r, err := storage.ConnectRedis(ctx, storage.RedisOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			Prefix:         cfg.RedisPrefix,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        10 * cfg.RedisRetryInterval,
			PingTimeout:    2 * time.Second,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("settings stored in redis", logger.String("addr", cfg.RedisAddr))
		return r, nil
	default:
		s, err := storage.NewSQLite(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		log.Info("settings stored in sqlite", logger.String("path", cfg.DatabasePath))
		return s, nil
	}
}

func (a *App) settingsLoaded(context.Context) error {
	if !a.store.Loaded() {
		return errors.New("settings not loaded")
	}
	return nil
}

// Run blocks until SIGINT/SIGTERM or until the gateway or the ops server
// fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting FixEmbed v%s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.bot.Run(gctx)
	})
	if a.server != nil {
		g.Go(func() error {
			if err := a.server.Start(); err != nil {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			return a.server.Stop(shutdownCtx)
		})
	}

	err := g.Wait()
	if err == nil {
		a.logger.Info("⏳ Shutting down gracefully...")
	}

	if cerr := a.backend.Close(); cerr != nil {
		a.logger.Warn("failed to close storage", logger.Error(cerr))
	}
	_ = a.logger.Sync()

	if err != nil {
		return err
	}
	a.logger.Info("✅ FixEmbed stopped cleanly")
	return nil
}
