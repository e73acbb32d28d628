package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/finlock/financing-engine/internal/config"
	"github.com/finlock/financing-engine/internal/repository"
	"github.com/finlock/financing-engine/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "financing-scheduler").
		Logger()
	logger.Info().Msg("starting financing scheduler")

	var store repository.Store
	if cfg.Storage.Driver == "postgres" {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()
		store = repository.NewPostgresStore(db)
	} else {
		store = repository.NewSeededMemoryStore()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	financingService := service.NewFinancingService(store, redisClient, cfg, logger)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("invalid scheduler timezone")
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))
	setupCronJobs(c, cfg, financingService, logger)

	c.Start()
	logger.Info().Msg("scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down scheduler")
	<-c.Stop().Done()
	logger.Info().Msg("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, financingService *service.FinancingService, logger zerolog.Logger) {
	// Daily sweep: re-evaluate unsettled loans against today's date.
	_, err := c.AddFunc(cfg.Scheduler.OverdueSweepSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		changed, err := financingService.SweepOverdue(ctx, time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("overdue sweep failed")
			return
		}
		logger.Info().Int("loans_updated", changed).Msg("overdue sweep completed")
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule overdue sweep")
	}

	// Weekly reminders for payments due within the next 3 days.
	_, err = c.AddFunc(cfg.Scheduler.ReminderSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		reminded, err := financingService.RemindUpcomingPayments(ctx, time.Now())
		if err != nil {
			logger.Error().Err(err).Msg("payment reminder run failed")
			return
		}
		logger.Info().Int("reminders", reminded).Msg("payment reminder run completed")
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule payment reminders")
	}

	logger.Info().
		Str("sweep_spec", cfg.Scheduler.OverdueSweepSpec).
		Str("reminder_spec", cfg.Scheduler.ReminderSpec).
		Msg("cron jobs scheduled")
}
