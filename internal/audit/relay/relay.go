// Package relay drains the transactional outbox into Kafka. It is the only
// bridge between the synchronous write path and the audit topic: rows are
// published in insertion order and marked published only after the broker
// acknowledged them, so a crash re-publishes rather than loses. Consumers
// must tolerate duplicates, which AppendWithID's idempotent insert does.
package relay

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gatehouse/internal/audit/metrics"
)

// Publisher is the broker-facing surface the relay needs.
type Publisher interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

type Relay struct {
	db        *sql.DB
	publisher Publisher
	topic     string
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(db *sql.DB, publisher Publisher, topic string, interval time.Duration, batchSize int, m *metrics.Metrics, logger *slog.Logger) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{
		db:        db,
		publisher: publisher,
		topic:     topic,
		interval:  interval,
		batchSize: batchSize,
		metrics:   m,
		logger:    logger,
	}
}

// Run polls the outbox until the context is canceled. Publish failures are
// logged and retried on the next tick; they never crash the relay.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			published, err := r.relayOnce(ctx)
			if err != nil {
				r.metrics.IncrementRelayErrors()
				r.logger.Error("outbox relay pass failed", "error", err)
				continue
			}
			if published > 0 {
				r.metrics.IncrementRelayPublished(published)
				r.logger.Debug("published outbox entries", "count", published)
			}
		}
	}
}

type outboxRow struct {
	id      uuid.UUID
	payload []byte
}

// relayOnce publishes one batch of unpublished rows. Rows are locked with
// SKIP LOCKED so multiple relay instances do not double-publish within one
// pass; redelivery across crashes is still possible and acceptable.
func (r *Relay) relayOnce(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin relay tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("query outbox: %w", err)
	}

	var batch []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	rows.Close()

	if len(batch) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(batch))
	for _, row := range batch {
		key, err := messageKey(row.payload)
		if err != nil {
			// A malformed payload can never publish; park it by marking
			// published so it stops blocking the batch.
			r.logger.Error("malformed outbox payload, skipping",
				"outbox_id", row.id,
				"error", err,
			)
			published = append(published, row.id)
			continue
		}
		if err := r.publisher.Produce(ctx, r.topic, key, row.payload); err != nil {
			// Stop the batch here; already-produced rows still get marked.
			r.logger.Error("failed to publish outbox entry",
				"outbox_id", row.id,
				"error", err,
			)
			break
		}
		published = append(published, row.id)
	}

	if len(published) > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE outbox SET published_at = $1 WHERE id = ANY($2)
		`, time.Now(), pq.Array(published))
		if err != nil {
			return 0, fmt.Errorf("mark outbox published: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit relay tx: %w", err)
	}
	return len(published), nil
}

// messageKey extracts the event ID from the payload. Keying by event ID
// keeps redeliveries of the same event on the same partition.
func messageKey(payload []byte) ([]byte, error) {
	var envelope struct {
		ID string `json:"ID"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal payload envelope: %w", err)
	}
	if _, err := uuid.Parse(envelope.ID); err != nil {
		return nil, fmt.Errorf("payload event ID: %w", err)
	}
	return []byte(envelope.ID), nil
}
