package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const BatchSize = 50

// Dispatcher relays undispatched outbox rows onto a channel, lowest id first, and
// stamps dispatched_at after each hand-over. A restart redelivers at most the row
// in flight. Rows are picked up whenever their transaction commits, so an event
// committed late is relayed on a later pass even when its id is lower than one
// already sent.
type Dispatcher struct {
	db  *gorm.DB
	log *zap.Logger
	out chan Event
}

func NewDispatcher(db *gorm.DB, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		db:  db,
		log: log.Named("events.dispatcher"),
		out: make(chan Event, BatchSize),
	}
}

func (d *Dispatcher) Stream() <-chan Event {
	return d.out
}

// ProcessEvents relays one batch and returns how many events were handed over.
func (d *Dispatcher) ProcessEvents(ctx context.Context) (int, error) {
	var rows []Record
	if err := d.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("id ASC").
		Limit(BatchSize).
		Find(&rows).Error; err != nil {
		return 0, err
	}

	sent := 0
	for _, row := range rows {
		var payload map[string]any
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			d.log.Error("skipping undecodable event", zap.Error(err), zap.String("event_id", row.ID.String()))
		} else {
			ev := Event{
				ID:          row.ID,
				Type:        row.EventType,
				AggregateID: row.AggregateID,
				Payload:     payload,
				OccurredAt:  row.CreatedAt,
			}
			select {
			case d.out <- ev:
				sent++
			case <-ctx.Done():
				return sent, ctx.Err()
			}
		}

		if err := d.markDispatched(ctx, row.ID); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// Run polls until ctx is cancelled, then closes the stream.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	defer close(d.out)

	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := d.ProcessEvents(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Error("event dispatch failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) markDispatched(ctx context.Context, id snowflake.ID) error {
	return d.db.WithContext(ctx).
		Model(&Record{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Update("dispatched_at", time.Now().UTC()).Error
}
