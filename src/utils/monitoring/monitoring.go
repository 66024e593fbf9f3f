package monitoring

import (
	"github.com/kalemarkets/settler/src/utils/monitoring/report"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor is shared by tasks that report their state and errors.
type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector
	Clear()
}
