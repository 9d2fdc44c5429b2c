package service

import (
	"context"

	"go.uber.org/zap"

	"triage-service/internal/metrics"
	"triage-service/internal/models"
	"triage-service/internal/triage"
)

// EventPublisher Публикует события классификации
type EventPublisher interface {
	Publish(ctx context.Context, event *models.TriageEvent) error
}

type TriageService struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewTriageService(publisher EventPublisher, m *metrics.Metrics, logger *zap.Logger) *TriageService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TriageService{
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Triage Классифицирует обращение и публикует событие.
// Ошибка публикации только логируется: на ответ клиенту она не влияет.
func (s *TriageService) Triage(ctx context.Context, description string) models.TriageResult {
	result := models.NewTriageResult(triage.Classify(description))

	if s.metrics != nil {
		s.metrics.ObserveRequest(metrics.OutcomeClassified)
		s.metrics.ObserveClassification(result.Category, result.Priority)
	}

	event := models.NewTriageEvent(description, result)
	err := s.publisher.Publish(ctx, event)
	if s.metrics != nil {
		s.metrics.ObservePublish(err)
	}
	if err != nil {
		s.logger.Warn("failed to publish triage event",
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
	}

	s.logger.Debug("issue classified",
		zap.String("category", string(result.Category)),
		zap.String("priority", string(result.Priority)),
		zap.Int("description_length", event.DescriptionLength),
	)

	return result
}

// Reject Учитывает отклонённый запрос
func (s *TriageService) Reject(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(outcome)
	}
}
