package server

import (
	"errors"

	"github.com/kalemarkets/settler/src/archive"
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/gateway"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/publisher"
	"github.com/kalemarkets/settler/src/utils/streamer"
	"github.com/kalemarkets/settler/src/utils/task"

	monitor_settler "github.com/kalemarkets/settler/src/utils/monitoring/settler"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates the settlement engine: the contract ledger,
// the REST gateway and the event pipeline behind the bus.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "controller")

	monitor := monitor_settler.NewMonitor().
		WithMaxHistorySize(30)

	ledger, err := NewLedger(self.Ctx, config)
	if err != nil {
		return
	}
	ledger.WithMonitor(monitor)

	if !ledger.Initialized() {
		// An in-memory ledger starts empty every boot, a durable one is
		// provisioned once with the init-ledger command
		if !config.Database.InMemory {
			err = errors.New("ledger not initialized, run 'settler init-ledger' first")
			return
		}
		err = ledger.Bootstrap()
		if err != nil {
			return
		}
	}
	err = ledger.RestoreMarkets()
	if err != nil {
		return
	}

	fanout := streamer.NewFanout(config).
		WithInputChannel(ledger.Events)

	server := gateway.NewServer(config).
		WithMonitor(monitor).
		WithAuthorizer(ledger.Auth).
		WithContracts(gateway.Contracts{
			Enterprise: ledger.Enterprise,
			Staking:    ledger.Staking,
			Factory:    ledger.Factory,
			Bus:        ledger.Bus,
			Markets:    ledger.Markets,
		}).
		WithEventStream(fanout.NewOutput())

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task)

	if !config.Database.InMemory {
		archiver := archive.NewArchiver(config).
			WithDB(ledger.DB).
			WithMonitor(monitor).
			WithInputChannel(fanout.NewOutput())
		self.Task = self.Task.WithSubtask(archiver.Task)
	}

	if config.Redis.Enabled {
		redisPublisher := publisher.NewRedisPublisher[types.ContractEvent](config, config.Redis, "events").
			WithInputChannel(fanout.NewOutput()).
			WithChannelName(config.EventBus.PublishChannelName).
			WithMonitor(monitor)
		self.Task = self.Task.WithSubtask(redisPublisher.Task)
	}

	// Consumers are attached, the stream may start
	self.Task = self.Task.WithSubtask(fanout.Task)

	return
}
