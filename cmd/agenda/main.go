package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"vetagenda/internal/agendaapi"
	"vetagenda/internal/api"
	"vetagenda/internal/booking"
	"vetagenda/internal/config"
	"vetagenda/internal/database"
	"vetagenda/internal/metrics"
	"vetagenda/internal/notify"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	if err := config.LoadEnv(); err != nil {
		logger.Fatal().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load(os.Getenv("AGENDA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	var client *agendaapi.Client
	var submitter booking.Submitter
	if cfg.API.Enabled && cfg.API.BaseURL != "" {
		client = agendaapi.NewClient(cfg.API.BaseURL, cfg.API.APIKey, cfg.APITimeout())
		client.UseRateLimit(cfg.API.RatePerSecond, cfg.API.Burst)
		if rdb != nil {
			client.UseRedisCache(rdb, cfg.CacheTTL())
		}
		submitter = client
	} else {
		logger.Warn().Msg("booking API disabled; appointment requests will be refused")
	}

	var source api.ScheduleSource = db
	var remote *agendaapi.RemoteSchedules
	if cfg.RemoteSchedules() {
		remote = agendaapi.NewRemoteSchedules(db, client)
		source = remote
		logger.Info().Str("base_url", cfg.API.BaseURL).Msg("schedules served from booking API")
	}

	// Initial load + hot reload of locations configuration
	watcher := &config.LocationsWatcher{
		Path:     cfg.LocationsConfigPath,
		Interval: cfg.ReloadInterval(),
		Logger:   logger,
		Apply: func(ctx context.Context, updated *config.LocationsConfig) error {
			if err := db.SyncLocationsFromConfig(ctx, updated); err != nil {
				return err
			}
			if remote != nil {
				remote.Invalidate(ctx, updated.IDs()...)
			}
			return nil
		},
	}
	if err := watcher.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("locations watch failed")
	}

	if submitter != nil && cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Error().Err(err).Msg("telegram bot init failed; notifications disabled")
		} else {
			bot.Debug = cfg.Telegram.Debug
			logger.Info().Str("account", bot.Self.UserName).Msg("telegram notifications enabled")
			submitter = &notify.NotifyingSubmitter{
				Next:     submitter,
				Notifier: notify.NewTelegramNotifier(bot, cfg.Telegram.ChatID),
				Logger:   logger,
			}
		}
	}

	server := api.NewHTTPServer(api.Options{
		Port:          cfg.Server.Port,
		APIKey:        cfg.Server.APIKey,
		ReadTimeout:   time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:  time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		SlotMinutes:   cfg.SlotMinutes(),
		HorizonDays:   cfg.HorizonDays(),
		DefaultRanges: cfg.DefaultRanges(),
		Location:      cfg.Location(),
	}, source, submitter, booking.NewValidator(), logger)

	server.AddReadinessCheck("database", db.PingContext)
	if rdb != nil {
		server.AddReadinessCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	if client != nil {
		server.AddReadinessCheck("booking_api", client.HealthCheck)
	}

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Backup.Enabled {
		backups := database.NewBackupService(db, database.BackupOptions{
			Enabled:       true,
			Interval:      cfg.BackupInterval(),
			StoragePath:   cfg.Backup.Path,
			RetentionDays: cfg.Backup.RetentionDays,
		}, logger)
		go backups.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info().Msg("vetagenda started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}
	logger.Info().Msg("vetagenda stopped")
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
