package services

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/backend"
	"finanzas/internal/core"
	"finanzas/internal/log"
)

// AlertService evaluates budget alerts against the current month's spend
// and publishes the ones that crossed their threshold.
type AlertService struct {
	store      backend.Store
	amqpClient *amqp.Client
	logger     *log.Logger
	now        func() time.Time
}

func NewAlertService(store backend.Store, amqpClient *amqp.Client, logger *log.Logger) *AlertService {
	return &AlertService{
		store:      store,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentAlerts),
		now:        time.Now,
	}
}

// Check evaluates every configured alert against spend since the start of
// the current month and returns the triggered ones.
func (s *AlertService) Check(ctx context.Context) ([]core.AlertStatus, error) {
	alerts, err := s.store.ListAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	return core.CheckAlerts(alerts, expenses, categories, core.PeriodStart(s.now())), nil
}

// CheckAndNotify evaluates alerts and publishes each triggered one.
// Publish failures are logged, not returned; the evaluation result stands
// on its own.
func (s *AlertService) CheckAndNotify(ctx context.Context) ([]core.AlertStatus, error) {
	statuses, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}

	for _, status := range statuses {
		if err := s.publish(ctx, status); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish alert",
				log.FieldAlertID, status.AlertID,
				log.FieldError, err)
		}
	}

	return statuses, nil
}

func (s *AlertService) publish(ctx context.Context, status core.AlertStatus) error {
	if s.amqpClient == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping alert publish",
			log.FieldAlertID, status.AlertID)
		return nil
	}
	return s.amqpClient.PublishAlert(ctx, amqp.NewAlertTriggeredMessage(status))
}
