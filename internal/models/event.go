package models

import (
	"time"

	"github.com/google/uuid"
)

// TriageEvent Событие классификации для аналитики в ClickHouse.
// Текст обращения в событие не попадает.
type TriageEvent struct {
	ID                string    `json:"Id"`
	Category          string    `json:"Category"`
	Priority          string    `json:"Priority"`
	DescriptionLength int       `json:"DescriptionLength"`
	EventTime         time.Time `json:"EventTime"`
}

func NewTriageEvent(description string, result TriageResult) *TriageEvent {
	return &TriageEvent{
		ID:                uuid.NewString(),
		Category:          string(result.Category),
		Priority:          string(result.Priority),
		DescriptionLength: len(description),
		EventTime:         time.Now().UTC(),
	}
}

// Validate Проверяет обязательные поля события, пришедшего из NATS
func (e *TriageEvent) Validate() error {
	if e.ID == "" || e.Category == "" || e.Priority == "" {
		return ErrInvalidEvent
	}

	if e.DescriptionLength < 0 {
		return ErrInvalidEvent
	}

	return nil
}
