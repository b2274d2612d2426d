package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Outbox struct {
	genID *snowflake.Node
}

func NewOutbox(genID *snowflake.Node) *Outbox {
	return &Outbox{genID: genID}
}

// Append must be given the transaction that performs the state change it describes.
func (o *Outbox) Append(ctx context.Context, tx *gorm.DB, eventType string, aggregateID snowflake.ID, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(&Record{
		ID:          o.genID.Generate(),
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     raw,
		CreatedAt:   time.Now().UTC(),
	}).Error
}
