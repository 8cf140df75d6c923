// Package main - точка входа для API сервера Speakably.
//
// Сервер обслуживает REST API языкового обучения: регистрация учеников,
// завершение уроков (XP, стрики, дневная цель), каталог курсов с
// прогрессивной разблокировкой, лидерборд, уведомления и сообщества.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: реализация репозиториев, кэш, планировщик
// - Interface: HTTP endpoints
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

	goredis "github.com/redis/go-redis/v9"

	"github.com/speakably/speakably-backend/config"

	// Application layer
	"github.com/speakably/speakably-backend/internal/application/command"
	"github.com/speakably/speakably-backend/internal/application/eventhandler"
	"github.com/speakably/speakably-backend/internal/application/query"

	// Domain layer
	"github.com/speakably/speakably-backend/internal/domain/catalog"
	"github.com/speakably/speakably-backend/internal/domain/leaderboard"

	// Infrastructure layer
	"github.com/speakably/speakably-backend/internal/infrastructure/messaging"
	"github.com/speakably/speakably-backend/internal/infrastructure/persistence/postgres"
	rediscache "github.com/speakably/speakably-backend/internal/infrastructure/persistence/redis"
	"github.com/speakably/speakably-backend/internal/infrastructure/scheduler"
	"github.com/speakably/speakably-backend/internal/infrastructure/scheduler/jobs"
	"github.com/speakably/speakably-backend/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/speakably/speakably-backend/internal/interface/http"

	// Packages
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
	log := setupLogger(cfg)
	log.Info("starting Speakably API server",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
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
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisClient *goredis.Client
	var leaderboardCache *rediscache.LeaderboardCache

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

		redisClient, err = rediscache.NewClient(ctx, redisCfg)
		if err != nil {
			// Лидерборд работает и без кэша, просто медленнее
			log.Warn("failed to connect to Redis, leaderboard caching disabled", logger.Err(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
			leaderboardCache = rediscache.NewLeaderboardCache(redisClient)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	credentialRepo := postgres.NewCredentialRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	communityRepo := postgres.NewCommunityRepository(dbConn)
	messageRepo := postgres.NewMessageRepository(dbConn)

	// Резолвер разблокировки читает факты завершения из журнала прогресса
	unlocks := catalog.NewUnlockResolver(ledgerRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultConfig()
	eventBusConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	sink := service.NewRetrySink(service.NewLogSink(log), log)
	lessonCompletedHandler := eventhandler.NewOnLessonCompletedHandler(notificationRepo, sink, log)
	if err := lessonCompletedHandler.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	// Типизированный nil в интерфейсе не является nil, поэтому присваиваем
	// кэш только при его наличии
	var invalidator command.LeaderboardInvalidator
	var lbCache leaderboard.Cache
	if leaderboardCache != nil {
		invalidator = leaderboardCache
		lbCache = leaderboardCache
	}

	registerLearnerCmd := command.NewRegisterLearnerHandler(dbConn, learnerRepo, credentialRepo, eventBus)
	completeLessonCmd := command.NewCompleteLessonHandler(dbConn, learnerRepo, ledgerRepo, catalogRepo, unlocks, eventBus, invalidator)
	resetProgressCmd := command.NewResetProgressHandler(dbConn, learnerRepo, ledgerRepo, eventBus, invalidator)
	updatePrefsCmd := command.NewUpdatePreferencesHandler(dbConn, learnerRepo)
	joinCommunityCmd := command.NewJoinCommunityHandler(communityRepo, eventBus)
	leaveCommunityCmd := command.NewLeaveCommunityHandler(communityRepo)
	createPostCmd := command.NewCreatePostHandler(communityRepo, eventBus)
	sendMessageCmd := command.NewSendMessageHandler(messageRepo, learnerRepo, eventBus)
	markReadCmd := command.NewMarkNotificationReadHandler(notificationRepo)

	profileQuery := query.NewGetProfileHandler(learnerRepo, ledgerRepo)
	dailyProgressQuery := query.NewGetDailyProgressHandler(learnerRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, learnerRepo, lbCache)
	lessonsQuery := query.NewGetLessonsHandler(catalogRepo, unlocks, ledgerRepo)
	catalogQuery := query.NewGetCatalogHandler(catalogRepo)
	notificationsQuery := query.NewGetNotificationsHandler(notificationRepo)
	communitiesQuery := query.NewGetCommunitiesHandler(communityRepo)
	conversationQuery := query.NewGetConversationHandler(messageRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	authenticator := service.NewStaticTokenAuthenticator(cfg.Auth.StaticTokens)
	if authenticator.Len() > 0 {
		log.Info("static token authentication enabled", logger.Int("tokens", authenticator.Len()))
	}

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	httpDeps := httpserver.Dependencies{
		RegisterLearner:      registerLearnerCmd,
		CompleteLesson:       completeLessonCmd,
		ResetProgress:        resetProgressCmd,
		UpdatePreferences:    updatePrefsCmd,
		JoinCommunity:        joinCommunityCmd,
		LeaveCommunity:       leaveCommunityCmd,
		CreatePost:           createPostCmd,
		SendMessage:          sendMessageCmd,
		MarkNotificationRead: markReadCmd,
		GetProfile:           profileQuery,
		GetDailyProgress:     dailyProgressQuery,
		GetLeaderboard:       leaderboardQuery,
		GetLessons:           lessonsQuery,
		GetCatalog:           catalogQuery,
		GetNotifications:     notificationsQuery,
		GetCommunities:       communitiesQuery,
		GetConversation:      conversationQuery,
		Authenticator:        authenticator,
		HealthChecker:        &healthChecker{db: dbConn, redis: redisClient},
		Logger:               log,
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ПЛАНИРОВЩИК В ПРОЦЕССЕ СЕРВЕРА (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("starting in-process scheduler...")
		sched = scheduler.NewScheduler(scheduler.Config{Logger: log})

		if cfg.Features.IsEnabled("progress.daily_reminders", "") {
			reminderCfg := jobs.DefaultDailyReminderConfig()
			reminderCfg.Window = cfg.Scheduler.ReminderWindow
			reminderJob := jobs.NewDailyReminderJob(learnerRepo, notificationRepo, sink, log, reminderCfg)
			if err := sched.Register(reminderJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReminderInterval)); err != nil {
				return fmt.Errorf("failed to register reminder job: %w", err)
			}
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
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. ЗАПУСК СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("starting services...")

	// Канал для ошибок
	errCh := make(chan error, 1)

	// Запускаем HTTP сервер
	go func() {
		log.Info("starting HTTP server", logger.String("address", httpConfig.Address()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Speakably API server is running",
		logger.String("address", httpConfig.Address()),
		logger.Bool("scheduler", cfg.Scheduler.Enabled),
	)

	// Ожидаем сигнал завершения или ошибку
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	// Начинаем graceful shutdown
	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// 1. Останавливаем планировщик (перестаём запускать новые задачи)
	if sched != nil {
		log.Info("stopping scheduler...")
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler gracefully", logger.Err(err))
			shutdownErr = err
		}
	}

	// 2. Останавливаем HTTP сервер
	log.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		shutdownErr = err
	}

	// 3. Event bus и база данных закроются через defer

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

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

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// These adapt infrastructure implementations to interface-layer contracts.
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker реализует httpserver.HealthChecker поверх PostgreSQL и Redis.
// Redis опционален: его отказ деградирует кэширование, но не готовность.
type healthChecker struct {
	db    *postgres.Connection
	redis *goredis.Client
}

// Check implements httpserver.HealthChecker.
func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := httpserver.HealthStatus{
		Healthy: true,
		Ready:   true,
		Checks:  make(map[string]string),
	}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Ready = false
		status.Checks["postgres"] = "down"
		status.Message = fmt.Sprintf("postgres: %v", err)
	} else {
		status.Checks["postgres"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status.Checks["redis"] = "down"
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}
