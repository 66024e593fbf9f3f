package model

import (
	"time"

	"github.com/lib/pq"
)

// ArchivedEvent is a contract event persisted past the in-ledger history
// window. Topics hold the event name and the emitting contract so queries
// can filter without unpacking the payload.
type ArchivedEvent struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	EventType string         `gorm:"index;not null"`
	Contract  string         `gorm:"index;not null"`
	Timestamp uint64         `gorm:"index;not null"`
	Topics    pq.StringArray `gorm:"type:text[]"`
	Payload   []byte         `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (ArchivedEvent) TableName() string {
	return "archived_events"
}
