package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	redis "github.com/redis/go-redis/v9"

	"livereport-bot/core/config"
	"livereport-bot/core/database"
	"livereport-bot/core/logger"
	"livereport-bot/core/telegram"
	"livereport-bot/core/telegram/middleware"
	tgsender "livereport-bot/core/telegram/sender"
	"livereport-bot/internal/convstate"
	"livereport-bot/internal/flow"
	"livereport-bot/internal/media"
	"livereport-bot/internal/notify"
	"livereport-bot/internal/ocr"
	"livereport-bot/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("bot exited: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Settings{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
	})

	if err := database.RunMigrations(cfg.Database); err != nil {
		return err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	users := storage.NewUsers(db)
	reports := storage.NewReports(db)

	states, closeStates, err := buildStateStore(cfg.State)
	if err != nil {
		return err
	}
	defer closeStates()

	service := flow.New(users, reports, states, ocr.NewSpaceClient(cfg.OCR), flow.Options{
		OCRMaxRetries: cfg.OCR.MaxRetries,
	})

	middlewares := []telegram.Middleware{
		{Name: "recover", Use: middleware.Recover},
	}
	if cfg.RateLimit.IntervalMS > 0 {
		exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
		for _, kind := range cfg.RateLimit.ExcludeUpdates {
			exclude[kind] = struct{}{}
		}
		middlewares = append(middlewares, telegram.Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimit(middleware.RateLimitOptions{
				Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:  exclude,
			}),
		})
	}
	middlewares = append(middlewares, telegram.Middleware{Name: "logging", Use: middleware.Logging})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	return telegram.Run(ctx, telegram.RunOptions{
		Config:            cfg,
		DispatcherOptions: tgsender.Options{},
		Middlewares:       middlewares,
		Routes:            service.Routes(cfg.Telegram.AdminID),
		Commands:          flow.Commands(),
		OnStart: func(ctx context.Context, rt telegram.Runtime) error {
			service.AttachTransport(
				media.NewTelegramFiles(rt.Bot, cfg.Telegram.Token),
				notify.NewTelegramNotifier(rt.Bot, rt.Dispatcher),
			)
			logger.L.With("component", "app").Info("app ready",
				slog.String("event", "ready"),
				slog.Duration("startup_duration", logger.Took(startedAt)),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt telegram.Runtime) error {
			logger.L.With("component", "app").Info("shutting down...",
				slog.String("event", "shutdown"),
			)
			return nil
		},
	})
}

// buildStateStore selects the conversation state backend. Redis keeps
// staged confirmations shared across instances in webhook mode.
func buildStateStore(cfg config.StateConfig) (convstate.Store, func(), error) {
	switch cfg.Backend {
	case config.StateBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, err
		}
		return convstate.NewRedisStore(client, cfg.TTL()), func() { _ = client.Close() }, nil
	default:
		return convstate.NewMemoryStore(cfg.TTL()), func() {}, nil
	}
}
