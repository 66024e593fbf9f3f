package eventbus

import (
	"fmt"

	"github.com/kalemarkets/settler/src/contracts/types"
	"github.com/kalemarkets/settler/src/utils/config"
	"github.com/kalemarkets/settler/src/utils/host"
	"github.com/kalemarkets/settler/src/utils/logger"

	"github.com/sirupsen/logrus"
)

const (
	keyAdmin    = "admin"
	keyRegistry = "registry"
	keyHead     = "head"
	keyTail     = "tail"
	keyStats    = "stats"

	keyEventPrefix = "event/"
	keySubsPrefix  = "subs/"
)

// Registry slot tags accepted by RegisterContract.
const (
	TagStaking          = "staking"
	TagOracle           = "oracle"
	TagMarketFactory    = "market_factory"
	TagPredictionMarket = "prediction_market"
)

// Stats summarizes bus activity since initialization.
type Stats struct {
	TotalEmitted uint64            `json:"total_emitted"`
	Stored       uint64            `json:"stored"`
	Evicted      uint64            `json:"evicted"`
	ByType       map[string]uint64 `json:"by_type"`
}

// Contract is the event/registry bus: registered contracts publish typed
// events into a bounded ring, observers query it with conjunctive filters.
// Accepted events are also fanned out on the output channel for the archive
// and the publisher.
type Contract struct {
	Config *config.EventBus
	Env    *host.Env
	Log    *logrus.Entry

	out chan types.ContractEvent
}

func NewContract(cfg *config.Config, env *host.Env) *Contract {
	return &Contract{
		Config: &cfg.EventBus,
		Env:    env,
		Log:    logger.NewSublogger("eventbus"),
		out:    make(chan types.ContractEvent, cfg.EventBus.ArchiveBatchSize*2),
	}
}

// Output is the stream of accepted events. The channel is buffered and
// lossy, a slow consumer drops events rather than stalling the bus.
func (self *Contract) Output() <-chan types.ContractEvent {
	return self.out
}

func (self *Contract) Initialize(admin types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		ok, err := env.HasInstance(keyAdmin)
		if err != nil {
			return err
		}
		if ok {
			return types.ErrNotAuthorized
		}

		err = env.SetInstance(keyAdmin, admin)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyRegistry, types.ContractRegistry{})
		if err != nil {
			return err
		}
		err = env.SetInstance(keyHead, uint64(0))
		if err != nil {
			return err
		}
		err = env.SetInstance(keyTail, uint64(0))
		if err != nil {
			return err
		}
		err = env.SetInstance(keyStats, Stats{ByType: map[string]uint64{}})
		if err != nil {
			return err
		}

		self.Log.WithField("admin", admin).Info("Event bus initialized")
		return nil
	})
}

// RegisterContract binds one registry slot, keyed by its string tag.
func (self *Contract) RegisterContract(admin types.Address, addr types.Address, typeTag string) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := self.requireAdmin(env, admin)
		if err != nil {
			return err
		}

		registry, err := self.registry(env)
		if err != nil {
			return err
		}

		switch typeTag {
		case TagStaking:
			registry.Staking = addr
		case TagOracle:
			registry.Oracle = addr
		case TagMarketFactory:
			registry.MarketFactory = addr
		case TagPredictionMarket:
			registry.PredictionMarket = addr
		default:
			return types.ErrNotAuthorized
		}

		return env.SetInstance(keyRegistry, registry)
	})
}

// EmitEvent accepts an event from one of the registered contracts, stores
// it in the ring and republishes it on the host log and the output channel.
func (self *Contract) EmitEvent(emitter types.Address, event types.ContractEvent) error {
	err := self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(emitter)
		if err != nil {
			return err
		}

		registry, err := self.registry(env)
		if err != nil {
			return err
		}
		if !registry.Contains(emitter) {
			return types.ErrNotAuthorized
		}

		var head, tail uint64
		_, err = env.GetInstance(keyHead, &head)
		if err != nil {
			return err
		}
		_, err = env.GetInstance(keyTail, &tail)
		if err != nil {
			return err
		}

		err = env.SetPersistent(eventKey(tail), event)
		if err != nil {
			return err
		}
		tail++

		var evicted uint64
		for tail-head > self.Config.MaxEventHistory {
			err = env.RemovePersistent(eventKey(head))
			if err != nil {
				return err
			}
			head++
			evicted++
		}

		err = env.SetInstance(keyHead, head)
		if err != nil {
			return err
		}
		err = env.SetInstance(keyTail, tail)
		if err != nil {
			return err
		}

		var stats Stats
		_, err = env.GetInstance(keyStats, &stats)
		if err != nil {
			return err
		}
		if stats.ByType == nil {
			stats.ByType = map[string]uint64{}
		}
		stats.TotalEmitted++
		stats.Evicted += evicted
		stats.Stored = tail - head
		stats.ByType[event.Type.String()]++
		err = env.SetInstance(keyStats, stats)
		if err != nil {
			return err
		}

		env.Emit(event.Payload)
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case self.out <- event:
	default:
		self.Log.WithField("type", event.Type.String()).
			Warn("Output channel full, event dropped from stream")
	}
	return nil
}

// EmitCrossContractCall records one contract invoking another, useful for
// tracing factory deployments and market resolutions.
func (self *Contract) EmitCrossContractCall(emitter, target types.Address, function string, success bool) error {
	return self.EmitEvent(emitter, types.NewEvent(emitter, self.Env.Now(), types.CrossContractCallPayload{
		FromContract: emitter,
		ToContract:   target,
		FunctionName: function,
		Success:      success,
	}))
}

// QueryEvents scans the ring oldest-first and returns events matching every
// present filter dimension. Absent dimensions are wildcards.
func (self *Contract) QueryEvents(filter types.EventFilter) (matched []types.ContractEvent, err error) {
	var head, tail uint64
	_, err = self.Env.GetInstance(keyHead, &head)
	if err != nil {
		return
	}
	_, err = self.Env.GetInstance(keyTail, &tail)
	if err != nil {
		return
	}

	for seq := head; seq < tail; seq++ {
		var event types.ContractEvent
		ok, err := self.Env.GetPersistent(eventKey(seq), &event)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if filter.Matches(&event) {
			matched = append(matched, event)
		}
	}
	return
}

// SubscribeToEvents registers an off-chain observer. Re-subscribing
// overwrites the previous subscription.
func (self *Contract) SubscribeToEvents(subscriber types.Address, eventTypes []string, contracts []types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(subscriber)
		if err != nil {
			return err
		}

		for _, name := range eventTypes {
			_, ok := types.ParseEventType(name)
			if !ok {
				return types.ErrNotAuthorized
			}
		}

		return env.SetPersistent(keySubsPrefix+string(subscriber), types.EventSubscription{
			Subscriber:        subscriber,
			EventTypes:        eventTypes,
			ContractAddresses: contracts,
			CreatedAt:         env.Now(),
			IsActive:          true,
		})
	})
}

func (self *Contract) UnsubscribeFromEvents(subscriber types.Address) error {
	return self.Env.Transact(func(env *host.Env) error {
		err := env.RequireAuth(subscriber)
		if err != nil {
			return err
		}
		return env.RemovePersistent(keySubsPrefix + string(subscriber))
	})
}

func (self *Contract) GetSubscription(subscriber types.Address) (sub types.EventSubscription, err error) {
	ok, err := self.Env.GetPersistent(keySubsPrefix+string(subscriber), &sub)
	if err != nil {
		return
	}
	if !ok {
		err = types.ErrNotAuthorized
	}
	return
}

func (self *Contract) GetEventStats() (stats Stats, err error) {
	_, err = self.Env.GetInstance(keyStats, &stats)
	return
}

func (self *Contract) GetContractRegistry() (types.ContractRegistry, error) {
	return self.registry(self.Env)
}

func (self *Contract) requireAdmin(env *host.Env, admin types.Address) error {
	err := env.RequireAuth(admin)
	if err != nil {
		return err
	}

	var stored types.Address
	ok, err := env.GetInstance(keyAdmin, &stored)
	if err != nil {
		return err
	}
	if !ok || stored != admin {
		return types.ErrNotAuthorized
	}
	return nil
}

func (self *Contract) registry(env *host.Env) (registry types.ContractRegistry, err error) {
	_, err = env.GetInstance(keyRegistry, &registry)
	return
}

// eventKey is fixed width so lexical ordering of keys matches sequence order.
func eventKey(seq uint64) string {
	return fmt.Sprintf("%s%020d", keyEventPrefix, seq)
}
