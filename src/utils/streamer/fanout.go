package streamer

import (
	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/task"
)

// Fanout duplicates the event bus output to every attached consumer.
// Consumers get their own buffered channel; a full channel drops the event
// for that consumer only.
type Fanout struct {
	*task.Task

	input      <-chan types.ContractEvent
	outputs    []chan types.ContractEvent
	bufferSize int
}

func NewFanout(config *config.Config) (self *Fanout) {
	self = new(Fanout)

	self.bufferSize = config.EventBus.ArchiveBatchSize * 2

	self.Task = task.NewTask(config, "fanout").
		WithSubtaskFunc(self.run)

	return
}

func (self *Fanout) WithInputChannel(input <-chan types.ContractEvent) *Fanout {
	self.input = input
	return self
}

// NewOutput attaches one consumer. Call before Start.
func (self *Fanout) NewOutput() chan types.ContractEvent {
	out := make(chan types.ContractEvent, self.bufferSize)
	self.outputs = append(self.outputs, out)
	return out
}

func (self *Fanout) run() (err error) {
	defer func() {
		for _, out := range self.outputs {
			close(out)
		}
	}()

	for {
		select {
		case <-self.Ctx.Done():
			return nil
		case event, ok := <-self.input:
			if !ok {
				return nil
			}
			for _, out := range self.outputs {
				select {
				case out <- event:
				default:
					self.Log.Warn("Consumer channel full, event dropped")
				}
			}
		}
	}
}
