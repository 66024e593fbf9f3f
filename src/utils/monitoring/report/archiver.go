package report

import (
	"go.uber.org/atomic"
)

type ArchiverErrors struct {
	DbEventInsert atomic.Uint64 `json:"db_event_insert"`
}

type ArchiverState struct {
	EventsArchived     atomic.Uint64 `json:"events_archived"`
	BatchesFlushed     atomic.Uint64 `json:"batches_flushed"`
	LastFlushTimestamp atomic.Int64  `json:"last_flush_timestamp"`
}

type ArchiverReport struct {
	State  ArchiverState  `json:"state"`
	Errors ArchiverErrors `json:"errors"`
}
