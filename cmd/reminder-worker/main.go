package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"subtrack/internal/amqp"
	"subtrack/internal/cli"
	applog "subtrack/internal/log"
	"subtrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentReminder)
	logger.Info("Starting reminder-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.CreateBackend(ctx, logger, cfg)
	subs := result.Service()

	// Reminders go through the backend's broker client when it has one.
	var (
		publisher services.ReminderPublisher
		ownClient *amqp.Client
	)
	if p, ok := result.Publisher.(services.ReminderPublisher); ok {
		publisher = p
	} else if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.AMQPReminderQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, reminders will only be logged", "error", err)
		} else {
			ownClient = client
			publisher = client
		}
	}
	if publisher == nil {
		logger.Info("No broker configured, reminders will only be logged")
	}

	renewals := services.NewRenewalProcessor(subs)
	reminders := services.NewReminderProcessor(result.Backend, cli.NewRatesService(cfg), publisher, cfg.ReminderDays)

	run := func(ctx context.Context) {
		now := time.Now()
		moved, err := renewals.AdvanceOverdue(ctx, now)
		if err != nil {
			logger.Error("Advancing overdue payment dates failed", "error", err)
		} else if moved > 0 {
			logger.Info("Advanced overdue payment dates", "count", moved)
		}

		sent, err := reminders.Run(ctx, now)
		if err != nil {
			logger.Error("Reminder run failed", "error", err)
			return
		}
		logger.Info("Reminder run finished", "sent", sent, "days", reminders.Days)
	}

	scheduler := cron.New()
	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
		}
		var err error
		if ownClient != nil {
			err = ownClient.Close()
		}
		if result.Cleanup != nil {
			err = errors.Join(err, result.Cleanup())
		}
		return err
	})

	if _, err := scheduler.AddFunc(cfg.ReminderCron, func() { run(shutdownCtx) }); err != nil {
		logger.Error("Invalid reminder schedule", "error", err, "cron", cfg.ReminderCron)
		os.Exit(1)
	}

	// Catch up once at start so a restart never skips a day.
	run(shutdownCtx)
	scheduler.Start()
	logger.Info("Reminder schedule started", "cron", cfg.ReminderCron, "days", cfg.ReminderDays)

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Reminder worker stopped")
}
