package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"triage-service/internal/metrics"
	"triage-service/internal/models"
)

const (
	subjectAll = "triage.*"
	logTimeout = 5 * time.Second
)

// EventLogger Сохраняет события для аналитики
type EventLogger interface {
	LogTriageEvent(ctx context.Context, event *models.TriageEvent) error
}

type NATSSubscriber struct {
	natsConn    *nats.Conn
	eventLogger EventLogger
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewNATSSubscriber(natsConn *nats.Conn, eventLogger EventLogger, m *metrics.Metrics, logger *zap.Logger) *NATSSubscriber {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NATSSubscriber{
		natsConn:    natsConn,
		eventLogger: eventLogger,
		metrics:     m,
		logger:      logger,
	}
}

func (s *NATSSubscriber) Subscribe() (*nats.Subscription, error) {
	sub, err := s.natsConn.Subscribe(subjectAll, func(msg *nats.Msg) {
		_ = s.handle(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subjectAll, err)
	}

	s.logger.Info("successfully subscribed to NATS topics", zap.String("subject", subjectAll))

	return sub, nil
}

func (s *NATSSubscriber) handle(subject string, data []byte) error {
	s.logger.Debug("received NATS message", zap.String("subject", subject))

	var event models.TriageEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.Warn("error unmarshalling NATS message", zap.String("subject", subject), zap.Error(err))
		return err
	}

	if err := event.Validate(); err != nil {
		s.logger.Warn("dropping NATS message", zap.String("subject", subject), zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
	defer cancel()

	err := s.eventLogger.LogTriageEvent(ctx, &event)
	if s.metrics != nil {
		s.metrics.ObserveLog(err)
	}
	if err != nil {
		s.logger.Error("error logging triage event", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}

	s.logger.Debug("logged triage event to ClickHouse",
		zap.String("event_id", event.ID),
		zap.String("category", event.Category),
		zap.String("priority", event.Priority),
	)

	return nil
}
