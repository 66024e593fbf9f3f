package monitoring

import (
	"github.com/kalemarkets/settler/src/utils/monitoring/report"

	"github.com/prometheus/client_golang/prometheus"
)

// NilMonitor swallows all counters, used in tests and one-shot commands.
type NilMonitor struct {
	report report.Report
}

func NewNilMonitor() *NilMonitor {
	return &NilMonitor{
		report: report.Report{
			Run:            &report.RunReport{},
			Contracts:      &report.ContractsReport{},
			Gateway:        &report.GatewayReport{},
			RedisPublisher: &report.RedisPublisherReport{},
			Archiver:       &report.ArchiverReport{},
		},
	}
}

func (self *NilMonitor) GetReport() *report.Report {
	return &self.report
}

func (self *NilMonitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return
}

func (self *NilMonitor) Clear() {
}
