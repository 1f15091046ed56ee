package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finanzas/internal/amqp"
	"finanzas/internal/backend"
	"finanzas/internal/config"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

// alert-worker periodically evaluates budget alerts and publishes the
// triggered ones over AMQP so downstream notifiers can pick them up.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting alert-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	store, err := factory.CreateStore(backend.Config{
		Type:         backend.BackendType(cfg.DataBackend),
		DataDir:      cfg.DataDir,
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize record store",
			log.FieldError, err,
			log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, alerts will only be logged", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	alertSvc := services.NewAlertService(store, amqpClient, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume our own queue as the notification sink until a dedicated
	// notifier exists downstream. When the broker connection drops the
	// consume call returns; reconnect with backoff and resume.
	if amqpClient != nil {
		go func() {
			for {
				err := amqpClient.ConsumeAlerts(ctx, func(msg *amqp.AlertTriggeredMessage) error {
					logger.Warn("Alert notification received",
						log.FieldAlertID, msg.AlertID,
						log.FieldCategory, msg.Category,
						"percentage", msg.Percentage,
						"current", msg.CurrentAmount,
						"limit", msg.LimitAmount)
					return nil
				})
				if ctx.Err() != nil {
					return
				}
				logger.Error("Alert consumer stopped, reconnecting", log.FieldError, err)
				if err := amqpClient.Reconnect(ctx); err != nil {
					return
				}
			}
		}()
	}

	logger.Info("Alert worker configured",
		"interval", cfg.AlertCheckInterval,
		log.FieldBackend, cfg.DataBackend)

	check := func(now time.Time) {
		statuses, err := alertSvc.CheckAndNotify(ctx)
		if err != nil {
			logger.Error("Alert check failed", log.FieldError, err)
			return
		}
		logger.Info("Alert check complete",
			"triggered", len(statuses),
			"next_check", now.Add(cfg.AlertCheckInterval).Format("15:04:05"))
		for _, status := range statuses {
			logger.Warn("Budget alert triggered",
				log.FieldAlertID, status.AlertID,
				log.FieldCategory, status.Category,
				"percentage", status.Percentage,
				"current", status.CurrentAmount,
				"limit", status.LimitAmount)
		}
	}

	// Run one check on startup, then on the ticker.
	check(time.Now())

	ticker := time.NewTicker(cfg.AlertCheckInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				check(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()
	logger.Info("Alert worker stopped gracefully")
}
