package models

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "client_count",
		Help: "The number of connected clients.",
	})

	clientCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "client_count_total",
		Help: "The total number of clients that connected.",
	})
)

func instrumentIncreaseClientGauge() {
	clientCount.Inc()
}

func instrumentDecreaseClientGauge() {
	clientCount.Dec()
}

func instrumentCountClient() {
	clientCountTotal.Inc()
}
