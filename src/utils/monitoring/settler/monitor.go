package monitor_settler

import (
	"math"
	"sync"
	"time"

	"github.com/kalemarkets/settler/src/utils/monitoring/report"
	"github.com/kalemarkets/settler/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	mtx sync.Mutex

	// Throughput and latency windows
	RequestCounts *deque.Deque[uint64]
	BetCounts     *deque.Deque[uint64]
	Latencies     *deque.Deque[float64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:            &report.RunReport{},
		Contracts:      &report.ContractsReport{},
		Gateway:        &report.GatewayReport{},
		RedisPublisher: &report.RedisPublisherReport{},
		Archiver:       &report.ArchiverReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorRequests).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorBets).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorUptime)
	return
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.RequestCounts = deque.New[uint64](self.historySize)
	self.BetCounts = deque.New[uint64](self.historySize)
	self.Latencies = deque.New[float64](self.historySize)

	return self
}

func (self *Monitor) Clear() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.RequestCounts.Clear()
	self.BetCounts.Clear()
	self.Latencies.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

// OnRequestLatency feeds the moving latency window
func (self *Monitor) OnRequestLatency(ms float64) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.Latencies.PushBack(ms)
	if self.Latencies.Len() > self.historySize {
		self.Latencies.PopFront()
	}

	var sum float64
	for i := 0; i < self.Latencies.Len(); i++ {
		sum += self.Latencies.At(i)
	}
	self.Report.Gateway.State.AverageRequestLatencyMs.Store(round(sum / float64(self.Latencies.Len())))
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure request throughput
func (self *Monitor) monitorRequests() (err error) {
	loaded := self.Report.Gateway.State.RequestsServed.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.RequestCounts.PushBack(loaded)
	if self.RequestCounts.Len() > self.historySize {
		self.RequestCounts.PopFront()
	}
	value := float64(self.RequestCounts.Back()-self.RequestCounts.Front()) / float64(self.RequestCounts.Len())

	self.Report.Gateway.State.AverageRequestsPerMinute.Store(round(value))
	return
}

// Measure betting throughput
func (self *Monitor) monitorBets() (err error) {
	loaded := self.Report.Contracts.State.BetsPlaced.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.BetCounts.PushBack(loaded)
	if self.BetCounts.Len() > self.historySize {
		self.BetCounts.PopFront()
	}
	value := float64(self.BetCounts.Back()-self.BetCounts.Front()) / float64(self.BetCounts.Len())

	self.Report.Contracts.State.AverageBetsPerMinute.Store(round(value))
	return
}

func (self *Monitor) monitorUptime() (err error) {
	up := time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()
	self.Report.Run.State.UpForSeconds.Store(uint64(up))
	return
}
