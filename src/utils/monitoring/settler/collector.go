package monitor_settler

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp           *prometheus.Desc
	UpForSeconds             *prometheus.Desc
	MarketsCreated           *prometheus.Desc
	MarketsResolved          *prometheus.Desc
	BetsPlaced               *prometheus.Desc
	WinningsClaimed          *prometheus.Desc
	PriceSubmissions         *prometheus.Desc
	TokensStaked             *prometheus.Desc
	EventsEmitted            *prometheus.Desc
	AverageBetsPerMinute     *prometheus.Desc
	RequestsServed           *prometheus.Desc
	WebsocketClients         *prometheus.Desc
	AverageRequestsPerMinute *prometheus.Desc
	AverageRequestLatencyMs  *prometheus.Desc
	MessagesPublished        *prometheus.Desc
	EventsArchived           *prometheus.Desc
	BatchesFlushed           *prometheus.Desc

	BetRejected         *prometheus.Desc
	ResolutionFailure   *prometheus.Desc
	ClaimRejected       *prometheus.Desc
	SubmissionRejected  *prometheus.Desc
	StakeRejected       *prometheus.Desc
	EventEmitRejected   *prometheus.Desc
	CreateMarketFailure *prometheus.Desc
	Unauthorized        *prometheus.Desc
	BadRequest          *prometheus.Desc
	ContractCallErrors  *prometheus.Desc
	PublishErrors       *prometheus.Desc
	PersistentFailure   *prometheus.Desc
	DbEventInsert       *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "settler",
	}

	return &Collector{
		StartTimestamp:           prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:             prometheus.NewDesc("up_for_seconds", "", nil, labels),
		MarketsCreated:           prometheus.NewDesc("markets_created", "", nil, labels),
		MarketsResolved:          prometheus.NewDesc("markets_resolved", "", nil, labels),
		BetsPlaced:               prometheus.NewDesc("bets_placed", "", nil, labels),
		WinningsClaimed:          prometheus.NewDesc("winnings_claimed", "", nil, labels),
		PriceSubmissions:         prometheus.NewDesc("price_submissions", "", nil, labels),
		TokensStaked:             prometheus.NewDesc("tokens_staked", "", nil, labels),
		EventsEmitted:            prometheus.NewDesc("events_emitted", "", nil, labels),
		AverageBetsPerMinute:     prometheus.NewDesc("average_bets_per_minute", "", nil, labels),
		RequestsServed:           prometheus.NewDesc("requests_served", "", nil, labels),
		WebsocketClients:         prometheus.NewDesc("websocket_clients", "", nil, labels),
		AverageRequestsPerMinute: prometheus.NewDesc("average_requests_per_minute", "", nil, labels),
		AverageRequestLatencyMs:  prometheus.NewDesc("average_request_latency_ms", "", nil, labels),
		MessagesPublished:        prometheus.NewDesc("messages_published", "", nil, labels),
		EventsArchived:           prometheus.NewDesc("events_archived", "", nil, labels),
		BatchesFlushed:           prometheus.NewDesc("batches_flushed", "", nil, labels),

		// Errors
		BetRejected:         prometheus.NewDesc("error_bet_rejected", "", nil, labels),
		ResolutionFailure:   prometheus.NewDesc("error_resolution_failure", "", nil, labels),
		ClaimRejected:       prometheus.NewDesc("error_claim_rejected", "", nil, labels),
		SubmissionRejected:  prometheus.NewDesc("error_submission_rejected", "", nil, labels),
		StakeRejected:       prometheus.NewDesc("error_stake_rejected", "", nil, labels),
		EventEmitRejected:   prometheus.NewDesc("error_event_emit_rejected", "", nil, labels),
		CreateMarketFailure: prometheus.NewDesc("error_create_market_failure", "", nil, labels),
		Unauthorized:        prometheus.NewDesc("error_unauthorized", "", nil, labels),
		BadRequest:          prometheus.NewDesc("error_bad_request", "", nil, labels),
		ContractCallErrors:  prometheus.NewDesc("error_contract_call", "", nil, labels),
		PublishErrors:       prometheus.NewDesc("error_publish", "", nil, labels),
		PersistentFailure:   prometheus.NewDesc("error_publish_persistent", "", nil, labels),
		DbEventInsert:       prometheus.NewDesc("error_db_event_insert", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.MarketsCreated
	ch <- self.MarketsResolved
	ch <- self.BetsPlaced
	ch <- self.WinningsClaimed
	ch <- self.PriceSubmissions
	ch <- self.TokensStaked
	ch <- self.EventsEmitted
	ch <- self.AverageBetsPerMinute
	ch <- self.RequestsServed
	ch <- self.WebsocketClients
	ch <- self.AverageRequestsPerMinute
	ch <- self.AverageRequestLatencyMs
	ch <- self.MessagesPublished
	ch <- self.EventsArchived
	ch <- self.BatchesFlushed

	// Errors
	ch <- self.BetRejected
	ch <- self.ResolutionFailure
	ch <- self.ClaimRejected
	ch <- self.SubmissionRejected
	ch <- self.StakeRejected
	ch <- self.EventEmitRejected
	ch <- self.CreateMarketFailure
	ch <- self.Unauthorized
	ch <- self.BadRequest
	ch <- self.ContractCallErrors
	ch <- self.PublishErrors
	ch <- self.PersistentFailure
	ch <- self.DbEventInsert
}

// Collect implements required collect function for all promehteus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.MarketsCreated, prometheus.CounterValue, float64(self.monitor.Report.Contracts.State.MarketsCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.MarketsResolved, prometheus.CounterValue, float64(self.monitor.Report.Contracts.State.MarketsResolved.Load()))
	ch <- prometheus.MustNewConstMetric(self.BetsPlaced, prometheus.CounterValue, float64(self.monitor.Report.Contracts.State.BetsPlaced.Load()))
	ch <- prometheus.MustNewConstMetric(self.WinningsClaimed, prometheus.CounterValue, float64(self.monitor.Report.Contracts.State.WinningsClaimed.Load()))
	ch <- prometheus.MustNewConstMetric(self.PriceSubmissions, prometheus.CounterValue, float64(self.monitor.Report.Contracts.State.PriceSubmissions.Load()))
	ch <- prometheus.MustNewConstMetric(self.TokensStaked, prometheus.GaugeValue, float64(self.monitor.Report.Contracts.State.TokensStaked.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsEmitted, prometheus.CounterValue, float64(self.monitor.Report.Contracts.State.EventsEmitted.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageBetsPerMinute, prometheus.GaugeValue, float64(self.monitor.Report.Contracts.State.AverageBetsPerMinute.Load()))
	ch <- prometheus.MustNewConstMetric(self.RequestsServed, prometheus.CounterValue, float64(self.monitor.Report.Gateway.State.RequestsServed.Load()))
	ch <- prometheus.MustNewConstMetric(self.WebsocketClients, prometheus.GaugeValue, float64(self.monitor.Report.Gateway.State.WebsocketClients.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageRequestsPerMinute, prometheus.GaugeValue, float64(self.monitor.Report.Gateway.State.AverageRequestsPerMinute.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageRequestLatencyMs, prometheus.GaugeValue, float64(self.monitor.Report.Gateway.State.AverageRequestLatencyMs.Load()))
	ch <- prometheus.MustNewConstMetric(self.MessagesPublished, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.State.MessagesPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsArchived, prometheus.CounterValue, float64(self.monitor.Report.Archiver.State.EventsArchived.Load()))
	ch <- prometheus.MustNewConstMetric(self.BatchesFlushed, prometheus.CounterValue, float64(self.monitor.Report.Archiver.State.BatchesFlushed.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.BetRejected, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.BetRejected.Load()))
	ch <- prometheus.MustNewConstMetric(self.ResolutionFailure, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.ResolutionFailure.Load()))
	ch <- prometheus.MustNewConstMetric(self.ClaimRejected, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.ClaimRejected.Load()))
	ch <- prometheus.MustNewConstMetric(self.SubmissionRejected, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.SubmissionRejected.Load()))
	ch <- prometheus.MustNewConstMetric(self.StakeRejected, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.StakeRejected.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventEmitRejected, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.EventEmitRejected.Load()))
	ch <- prometheus.MustNewConstMetric(self.CreateMarketFailure, prometheus.CounterValue, float64(self.monitor.Report.Contracts.Errors.CreateMarketFailure.Load()))
	ch <- prometheus.MustNewConstMetric(self.Unauthorized, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.Unauthorized.Load()))
	ch <- prometheus.MustNewConstMetric(self.BadRequest, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.BadRequest.Load()))
	ch <- prometheus.MustNewConstMetric(self.ContractCallErrors, prometheus.CounterValue, float64(self.monitor.Report.Gateway.Errors.ContractCall.Load()))
	ch <- prometheus.MustNewConstMetric(self.PublishErrors, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.Publish.Load()))
	ch <- prometheus.MustNewConstMetric(self.PersistentFailure, prometheus.CounterValue, float64(self.monitor.Report.RedisPublisher.Errors.PersistentFailure.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbEventInsert, prometheus.CounterValue, float64(self.monitor.Report.Archiver.Errors.DbEventInsert.Load()))
}
