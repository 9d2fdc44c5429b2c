package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"triage-service/internal/models"
)

const SubjectClassified = "triage.classified"

type NATSPublisher struct {
	natsConn *nats.Conn
}

func NewNATSPublisher(natsConn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{natsConn: natsConn}
}

// Publish Публикация события в NATS
func (p *NATSPublisher) Publish(_ context.Context, event *models.TriageEvent) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshaling event: %w", err)
	}

	if err := p.natsConn.Publish(SubjectClassified, bytes); err != nil {
		return fmt.Errorf("error publishing to NATS: %w", err)
	}

	return nil
}

// NopPublisher используется, когда NATS не настроен
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.TriageEvent) error {
	return nil
}
