package navmesh

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultLabel = "result"

	resultOK = "ok"
)

var (
	indexBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "navmesh_index_builds",
		Help: "The number of quad-decomposition indexes built.",
	})

	indexBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "navmesh_index_build_latency",
		Help: "The time to build a quad-decomposition index.",
	})

	indexLeaves = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navmesh_index_leaves",
		Help: "The number of leaves of the last built index.",
	})

	graphBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "navmesh_graph_build_latency",
		Help: "The time to build an adjacency graph.",
	})

	graphLinks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navmesh_graph_links",
		Help: "The number of neighbor links of the last built graph.",
	})

	graphRejectedLinks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "navmesh_graph_rejected_links",
		Help: "The number of adjacent leaf pairs rejected by line of sight in the last built graph.",
	})

	pathSearches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navmesh_path_searches",
		Help: "The number of path searches.",
	}, []string{
		resultLabel,
	})

	pathSearchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "navmesh_path_search_latency",
		Help: "The time to search a path.",
	}, []string{
		resultLabel,
	})

	pathSearchIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "navmesh_path_search_iterations",
		Help:    "The number of frontier pops of a path search.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})
)

func instrumentIndexBuild(start time.Time, leaves int) {
	indexBuilds.Inc()
	indexBuildLatency.Observe(time.Since(start).Seconds())
	indexLeaves.Set(float64(leaves))
}

func instrumentGraphBuild(start time.Time, links, rejected int) {
	graphBuildLatency.Observe(time.Since(start).Seconds())
	graphLinks.Set(float64(links))
	graphRejectedLinks.Set(float64(rejected))
}

func instrumentPathSearch(start time.Time, err error, iterations int) {
	result := resultOK
	if err != nil {
		result = errors.Type(err)
	}

	labels := prometheus.Labels{resultLabel: result}
	pathSearches.With(labels).Inc()
	pathSearchLatency.With(labels).Observe(time.Since(start).Seconds())
	pathSearchIterations.Observe(float64(iterations))
}
