package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/admin"
	"github.com/studbot/timetable_bot/internal/app"
	"github.com/studbot/timetable_bot/internal/config"
	"github.com/studbot/timetable_bot/internal/controller"
	"github.com/studbot/timetable_bot/internal/notify"
	"github.com/studbot/timetable_bot/internal/repository"
	"github.com/studbot/timetable_bot/internal/service"
	"github.com/studbot/timetable_bot/internal/transport/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting timetable bot",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Timezone),
	)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// База данных
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	// Миграции
	migrator, err := app.NewMigrator(pool)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	migrator.Close()

	// Репозитории
	userRepo := repository.NewUserRepository(pool)
	directionRepo := repository.NewDirectionRepository(pool)
	pairRepo := repository.NewPairRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	logRepo := repository.NewDeliveryLogRepository(pool)

	// Telegram
	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Рассылка
	dispatcher := notify.NewDispatcher(
		telegram.NewSender(b),
		logRepo,
		notify.Options{
			BatchSize:  cfg.BatchSize,
			BatchDelay: cfg.BatchDelay,
			MaxRetries: cfg.MaxRetries,
		},
		logger,
	)

	// Сервисы
	userService := service.NewUserService(userRepo, directionRepo, logger)
	scheduleService := service.NewScheduleService(pairRepo, slotRepo, logger)
	notifService := service.NewNotificationService(userRepo, pairRepo, dispatcher, cfg.ReminderLead, logger)

	// Планировщик рассылок
	scheduler := app.NewScheduler(
		notifService,
		slotRepo,
		loc,
		cfg.MorningHour,
		cfg.MorningMinute,
		cfg.ReminderLead,
		logger,
	)
	// Планировщику даём независимый контекст: при остановке по сигналу
	// текущая рассылка должна доработать до конца (scheduler.Stop ниже)
	scheduler.Start(context.Background())

	// Админ-панель
	adminServer := admin.NewServer(
		cfg.AdminAddr,
		cfg.AdminUser,
		cfg.AdminPassword,
		notifService,
		scheduleService,
		directionRepo,
		logRepo,
		logger,
	)
	go func() {
		if err := adminServer.Start(); err != nil {
			logger.Error("Admin server error", zap.Error(err))
		}
	}()

	// Бот
	botController := controller.NewBotController(
		b,
		userService,
		scheduleService,
		logRepo,
		loc,
		cfg.AdminTgID,
		logger,
	)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Fatal("Failed to register handlers", zap.Error(err))
	}

	// Блокирует до отмены контекста (SIGINT/SIGTERM)
	botController.Start(ctx)

	logger.Info("Shutdown signal received")

	// Дожидаемся завершения текущей рассылки перед выходом
	scheduler.Stop()

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shCtx); err != nil {
		logger.Warn("Admin server shutdown error", zap.Error(err))
	}

	logger.Info("Bye")
}
