package config

import (
	"time"

	"github.com/spf13/viper"
)

type EventBus struct {
	// Size of the bounded event ring, oldest entries evicted first
	MaxEventHistory uint64

	// Redis channel accepted events are published to
	PublishChannelName string

	// Events are archived to the database in batches of this size
	ArchiveBatchSize int

	// Events are flushed to the archive at least this often
	ArchiveMaxTimeInQueue time.Duration
}

func setEventBusDefaults() {
	viper.SetDefault("EventBus.MaxEventHistory", "1000")
	viper.SetDefault("EventBus.PublishChannelName", "settler/events")
	viper.SetDefault("EventBus.ArchiveBatchSize", "100")
	viper.SetDefault("EventBus.ArchiveMaxTimeInQueue", "10s")
}
