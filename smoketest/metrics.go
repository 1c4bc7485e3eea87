package smoketest

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel     = "error_type"
	resultLabel      = "result"
	queryStatusLabel = "query_status"
	endpointLabel    = "endpoint"
)

var (
	smokeTestRun = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smoke_test_runs",
		Help: "The number of smoke tests run.",
	}, []string{
		resultLabel,
	})

	smokeTestProbe = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smoke_test_probes",
		Help: "The number of smoke test probes run.",
	}, []string{
		resultLabel,
		queryStatusLabel,
	})

	smokeTestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "smoke_test_latency",
		Help: "The time to run a smoke test.",
	})

	smokeTestReport = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smoke_test_reports",
		Help: "The number of smoke test results reported.",
	}, []string{
		endpointLabel,
	})

	smokeTestReportError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smoke_test_report_errors",
		Help: "The errors that occured while reporting smoke test results.",
	}, []string{
		endpointLabel,
		errTypeLabel,
	})

	smokeTestReportLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "smoke_test_report_latency",
		Help: "The time to report smoke test results.",
	}, []string{
		endpointLabel,
	})
)

func instrumentSmokeTest(res Results) {
	smokeTestRun.With(prometheus.Labels{
		resultLabel: res.Status,
	}).Inc()

	for _, p := range res.Probes {
		smokeTestProbe.With(prometheus.Labels{
			resultLabel:      p.Status,
			queryStatusLabel: p.QueryStatus,
		}).Inc()
	}

	smokeTestLatency.Observe(res.LatencyMilliSec / 1000)
}

func instrumentReport(endpoint string, report func() error) error {
	start := time.Now()
	defer func() {
		smokeTestReportLatency.With(prometheus.Labels{
			endpointLabel: endpoint,
		}).Observe(time.Since(start).Seconds())
	}()

	if err := report(); err != nil {
		smokeTestReportError.With(prometheus.Labels{
			endpointLabel: endpoint,
			errTypeLabel:  errors.Type(err),
		}).Inc()
		return err
	}

	smokeTestReport.With(prometheus.Labels{
		endpointLabel: endpoint,
	}).Inc()
	return nil
}
