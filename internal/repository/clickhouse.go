package repository

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2"

	"triage-service/internal/models"
)

const createTriageLogTable = `
	CREATE TABLE IF NOT EXISTS triage_log (
		Id                String,
		Category          LowCardinality(String),
		Priority          LowCardinality(String),
		DescriptionLength UInt32,
		EventTime         DateTime64(3, 'UTC')
	) ENGINE = MergeTree()
	ORDER BY EventTime`

type ClickhouseRepository struct {
	conn clickhouse.Conn
}

func NewClickhouseRepository(conn clickhouse.Conn) *ClickhouseRepository {
	return &ClickhouseRepository{conn: conn}
}

// EnsureSchema Создаёт таблицу triage_log, если её ещё нет
func (r *ClickhouseRepository) EnsureSchema(ctx context.Context) error {
	return r.conn.Exec(ctx, createTriageLogTable)
}

func (r *ClickhouseRepository) LogTriageEvent(ctx context.Context, event *models.TriageEvent) error {
	query := `
        INSERT INTO triage_log (
            Id, Category, Priority, DescriptionLength, EventTime
        ) VALUES (?, ?, ?, ?, ?)`

	return r.conn.Exec(ctx, query,
		event.ID,
		event.Category,
		event.Priority,
		uint32(event.DescriptionLength),
		event.EventTime,
	)
}
