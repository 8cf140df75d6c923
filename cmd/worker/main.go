// Package main - точка входа для фонового воркера Speakably.
//
// Воркер выполняет периодические задачи:
// - рассылка ежедневных напоминаний ученикам, не достигшим дневной цели
// - прогрев кэша лидерборда по всем периодам (день/неделя/месяц)
//
// Воркер использует ту же базу данных и схему, что и API сервер, поэтому
// также прогоняет миграции при старте.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/speakably/speakably-backend/config"
	"github.com/speakably/speakably-backend/internal/domain/leaderboard"
	"github.com/speakably/speakably-backend/internal/infrastructure/persistence/postgres"
	rediscache "github.com/speakably/speakably-backend/internal/infrastructure/persistence/redis"
	"github.com/speakably/speakably-backend/internal/infrastructure/scheduler"
	"github.com/speakably/speakably-backend/internal/infrastructure/scheduler/jobs"
	"github.com/speakably/speakably-backend/internal/infrastructure/service"
	"github.com/speakably/speakably-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	log := logger.New(opts).With(logger.String("app", "worker"))

	log.Info("starting Speakably worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := connectDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// Проверяем соединение
	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ (воркер также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var lbCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := rediscache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}

		redisClient, err := rediscache.NewClient(ctx, redisCfg)
		if err != nil {
			// Без Redis воркер пропускает прогрев кэша
			log.Warn("failed to connect to Redis, cache warming disabled", logger.Err(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			lbCache = rediscache.NewLeaderboardCache(redisClient)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. РЕГИСТРАЦИЯ ЗАДАЧ И ЗАПУСК ПЛАНИРОВЩИКА
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering scheduled jobs...")

	sched := scheduler.NewScheduler(scheduler.Config{Logger: log})

	if cfg.Features.IsEnabled("progress.daily_reminders", "") {
		sink := service.NewRetrySink(service.NewLogSink(log), log)
		reminderCfg := jobs.DefaultDailyReminderConfig()
		reminderCfg.Window = cfg.Scheduler.ReminderWindow
		reminderJob := jobs.NewDailyReminderJob(learnerRepo, notificationRepo, sink, log, reminderCfg)
		if err := sched.Register(reminderJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReminderInterval)); err != nil {
			return fmt.Errorf("failed to register reminder job: %w", err)
		}
	} else {
		log.Info("daily reminders disabled by feature flag")
	}

	if lbCache != nil {
		rebuildJob := jobs.NewRebuildLeaderboardJob(leaderboardRepo, lbCache, log)
		if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.LeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register leaderboard job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	for _, info := range sched.ListJobs() {
		log.Info("job registered",
			logger.String("name", info.Name),
			logger.Time("next_run", info.NextRun),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Speakably worker is running",
		logger.Duration("reminder_interval", cfg.Scheduler.ReminderInterval),
		logger.Duration("leaderboard_interval", cfg.Scheduler.LeaderboardInterval),
	)

	// Ожидаем сигнал завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", logger.String("signal", sig.String()))

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// connectDatabase открывает соединение по URL или по отдельным параметрам.
func connectDatabase(ctx context.Context, cfg *config.Config) (*postgres.Connection, error) {
	if cfg.Database.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.Host = cfg.Database.Host
	pgCfg.Port = cfg.Database.Port
	pgCfg.Database = cfg.Database.Name
	pgCfg.User = cfg.Database.User
	pgCfg.Password = cfg.Database.Password
	pgCfg.SSLMode = cfg.Database.SSLMode
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	return postgres.NewConnection(ctx, pgCfg)
}
