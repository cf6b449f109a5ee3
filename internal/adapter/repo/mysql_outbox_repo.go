package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const (
	outboxPending = "PENDING"
	outboxSent    = "SENT"
)

// MySQLOutbox records order events in the outbox table instead of sending
// them. A relay drains PENDING rows to the broker.
type MySQLOutbox struct {
	db  *sql.DB
	now func() time.Time
}

var _ usecase.EventPublisher = (*MySQLOutbox)(nil)

func NewMySQLOutbox(db *sql.DB) *MySQLOutbox {
	return &MySQLOutbox{db: db, now: time.Now}
}

func (r *MySQLOutbox) PublishOrderPlaced(ctx context.Context, msg usecase.OrderPlacedMsg) error {
	return r.insert(ctx, usecase.EventOrderPlaced, msg.OrderID, msg)
}

func (r *MySQLOutbox) PublishOrderReceived(ctx context.Context, msg usecase.OrderReceivedMsg) error {
	return r.insert(ctx, usecase.EventOrderReceived, msg.OrderID, msg)
}

func (r *MySQLOutbox) insert(ctx context.Context, channel, messageID string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", channel, err)
	}
	now := r.now().UTC()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO outbox (channel, message_id, payload, status, retry_count, next_attempt_at, created_at)
VALUES (?, ?, ?, ?, 0, ?, ?)`,
		channel, messageID, payload, outboxPending, now, now)
	if err != nil {
		return fmt.Errorf("outbox insert %s: %w", channel, err)
	}
	return nil
}

// Pending returns up to limit events that are due, oldest first.
func (r *MySQLOutbox) Pending(ctx context.Context, limit int) ([]usecase.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, channel, message_id, payload, retry_count FROM outbox
WHERE status = ? AND next_attempt_at <= ?
ORDER BY id LIMIT ?`,
		outboxPending, r.now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxEvent
	for rows.Next() {
		var e usecase.OutboxEvent
		if err := rows.Scan(&e.ID, &e.Channel, &e.MessageID, &e.Payload, &e.Retries); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MySQLOutbox) MarkSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET status = ?, sent_at = ? WHERE id = ?`,
		outboxSent, r.now().UTC(), id)
	return err
}

// MarkRetry pushes the event back to next and counts the failed attempt.
func (r *MySQLOutbox) MarkRetry(ctx context.Context, id int64, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET retry_count = retry_count + 1, next_attempt_at = ? WHERE id = ?`,
		next.UTC(), id)
	return err
}
