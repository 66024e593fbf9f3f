package archive

import (
	"time"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/model"
	"github.com/kalemarkets/settler/src/utils/monitoring"
	"github.com/kalemarkets/settler/src/utils/task"

	"gorm.io/gorm"
)

// Archiver drains the event bus output into the database.
// - groups incoming events into batches,
// - ensures data isn't stuck even if a batch isn't big enough
type Archiver struct {
	*task.Task

	db      *gorm.DB
	monitor monitoring.Monitor
	input   <-chan types.ContractEvent
}

func NewArchiver(config *config.Config) (self *Archiver) {
	self = new(Archiver)

	self.Task = task.NewTask(config, "archiver").
		WithSubtaskFunc(self.run)

	return
}

func (self *Archiver) WithDB(db *gorm.DB) *Archiver {
	self.db = db
	return self
}

func (self *Archiver) WithMonitor(monitor monitoring.Monitor) *Archiver {
	self.monitor = monitor
	return self
}

func (self *Archiver) WithInputChannel(input <-chan types.ContractEvent) *Archiver {
	self.input = input
	return self
}

func (self *Archiver) run() (err error) {
	// Used to ensure events aren't stuck in the queue for too long
	ticker := time.NewTicker(self.Config.EventBus.ArchiveMaxTimeInQueue)
	defer ticker.Stop()

	var pending []*model.ArchivedEvent

	flush := func() {
		if len(pending) == 0 {
			return
		}
		self.Log.WithField("length", len(pending)).Debug("Insert batch of events")
		err := self.db.WithContext(self.Ctx).
			CreateInBatches(pending, len(pending)).
			Error
		if err != nil {
			self.Log.WithError(err).Error("Failed to insert events, batch dropped")
			self.monitor.GetReport().Archiver.Errors.DbEventInsert.Inc()
			pending = nil
			return
		}

		self.monitor.GetReport().Archiver.State.EventsArchived.Add(uint64(len(pending)))
		self.monitor.GetReport().Archiver.State.BatchesFlushed.Inc()
		self.monitor.GetReport().Archiver.State.LastFlushTimestamp.Store(time.Now().Unix())
		pending = nil
	}

	for {
		select {
		case <-self.Ctx.Done():
			flush()
			return nil
		case <-ticker.C:
			flush()
		case event, ok := <-self.input:
			if !ok {
				flush()
				return nil
			}

			record, err := convert(&event)
			if err != nil {
				self.Log.WithError(err).Error("Failed to serialize event, skipping")
				continue
			}
			pending = append(pending, record)

			if len(pending) >= self.Config.EventBus.ArchiveBatchSize {
				flush()
			}
		}
	}
}

func convert(event *types.ContractEvent) (*model.ArchivedEvent, error) {
	payload, err := event.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return &model.ArchivedEvent{
		EventType: event.Type.String(),
		Contract:  string(event.Contract),
		Timestamp: event.Timestamp,
		Topics:    []string{event.Type.String(), string(event.Contract)},
		Payload:   payload,
	}, nil
}
