package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/raido/featureflag"
	raidohttp "github.com/aukilabs/raido/http"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/models"
	"github.com/aukilabs/raido/modules"
	"github.com/aukilabs/raido/modules/raido"
	"github.com/aukilabs/raido/navmesh"
	"github.com/aukilabs/raido/scene"
	"github.com/aukilabs/raido/smoketest"
	rwebsocket "github.com/aukilabs/raido/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

var (
	// The Raido version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "raido_info",
		Help:        "Raido information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string          `cli:""        env:"RAIDO_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string          `cli:""        env:"RAIDO_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string          `cli:""        env:"RAIDO_PUBLIC_ENDPOINT"      help:"The public endpoint where this Raido server is reachable."`
	LogLevel           string          `cli:""        env:"RAIDO_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool            `cli:""        env:"RAIDO_LOG_INDENT"           help:"Indent logs."`
	ScenePath          string          `cli:""        env:"RAIDO_SCENE_PATH"           help:"The scene file (.yaml|.yml|.json) navigation indexes are built from."`
	SceneWatch         bool            `cli:""        env:"RAIDO_SCENE_WATCH"          help:"Rebuild the navigation index when the scene file changes."`
	MinimumSize        float64         `cli:""        env:"RAIDO_MINIMUM_SIZE"         help:"Overrides the minimum region size of the scene when greater than 0."`
	MaxIterations      int             `cli:""        env:"RAIDO_MAX_ITERATIONS"       help:"The maximum number of regions explored by a path search."`
	Heuristic          string          `cli:""        env:"RAIDO_HEURISTIC"            help:"The default path search heuristic (euclidean|manhattan)."`
	AuthToken          string          `cli:",hidden" env:"RAIDO_AUTH_TOKEN"           help:"The bearer token required from clients. Empty disables authentication."`
	ClientIdleTimeout  time.Duration   `cli:",hidden" env:"RAIDO_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	LogSummaryInterval time.Duration   `cli:",hidden" env:"RAIDO_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	QueryRate          float64         `cli:",hidden" env:"RAIDO_QUERY_RATE"           help:"The number of messages per second a client can send. 0 disables the limit."`
	QueryBurst         int             `cli:",hidden" env:"RAIDO_QUERY_BURST"          help:"The number of messages a client can send at once."`
	SceneDebounce      time.Duration   `cli:",hidden" env:"RAIDO_SCENE_DEBOUNCE"       help:"The delay between a scene file change and the rebuild."`
	SmokeTest          smokeTestConfig `cli:",hidden" env:"-"                          help:"Smoke test configuration."`
	Events             eventsConfig    `cli:",hidden" env:"-"                          help:"Event pusher configuration."`
	FeatureFlags       []string        `cli:",hidden" env:"RAIDO_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool            `cli:""        env:"-"                          help:"Show version."`
	Help               bool            `cli:""        env:"-"                          help:"Show help."`
}

type smokeTestConfig struct {
	OnStart        bool   `cli:",hidden" env:"RAIDO_SMOKE_TEST_ON_START"        help:"Run the scene probes after each navigation index build."`
	ResultEndpoint string `cli:",hidden" env:"RAIDO_SMOKE_TEST_RESULT_ENDPOINT" help:"Endpoint to where smoke test results are posted."`
	Concurrency    int    `cli:",hidden" env:"RAIDO_SMOKE_TEST_CONCURRENCY"     help:"The number of probes run at once."`
	QueueSize      int    `cli:",hidden" env:"RAIDO_SMOKE_TEST_QUEUE_SIZE"      help:"The number of smoke test results waiting to be reported."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"RAIDO_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"RAIDO_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"RAIDO_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"RAIDO_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		MaxIterations:      navmesh.DefaultMaxIterations,
		Heuristic:          "euclidean",
		ClientIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
		QueryBurst:         16,
		SceneDebounce:      time.Millisecond * 500,
		SmokeTest: smokeTestConfig{
			OnStart:     true,
			Concurrency: smoketest.DefaultConcurrency,
			QueueSize:   16,
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts Raido navigation server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "raido",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	flags := featureflag.New(conf.FeatureFlags)
	opts := stateOptions(conf, flags)

	state, err := raido.NewState(opts)
	if err != nil {
		logs.Fatal(errors.New("creating navigation state failed").Wrap(err))
	}

	reporter := smoketest.Reporter{
		Endpoint:   conf.SmokeTest.ResultEndpoint,
		ResultChan: make(chan smoketest.Results, conf.SmokeTest.QueueSize),
		Transport:  transport,
	}
	reporter.HandleResults(ctx)

	var clients models.ClientStore

	flags.IfNotSet(featureflag.FlagDisableRebuildBroadcast, func() {
		state.OnRebuild(func(nav *raido.Navigation) {
			clients.Broadcast(messages.MsgTypeGraphRebuilt, messages.GraphRebuilt{
				BuildID: nav.Index.BuildID,
				Leaves:  len(nav.Index.Leaves()),
			})
		})
	})

	if conf.SmokeTest.OnStart {
		state.OnRebuild(func(nav *raido.Navigation) {
			if len(nav.Scene.Probes) == 0 {
				return
			}

			go func() {
				res, err := smoketest.Run(ctx, state, nav.Scene.Probes, conf.SmokeTest.Concurrency)
				if err != nil {
					logs.Warn(errors.New("running startup smoke test failed").Wrap(err))
					return
				}

				if err := reporter.SendResult(ctx, res); err != nil {
					logs.Warn(err)
				}
			}()
		})
	}

	sc, err := scene.Load(conf.ScenePath)
	if err != nil {
		logs.Fatal(errors.New("loading scene failed").Wrap(err))
	}

	if _, err := state.Build(sc); err != nil {
		logs.Fatal(errors.New("building navigation index failed").Wrap(err))
	}

	if conf.SceneWatch {
		go func() {
			err := scene.Watch(ctx, conf.ScenePath, conf.SceneDebounce, func(sc *scene.Scene) {
				if _, err := state.Build(sc); err != nil {
					logs.Error(errors.New("rebuilding navigation index failed").
						WithTag("scene_path", conf.ScenePath).
						Wrap(err))
				}
			})
			if err != nil && err != context.Canceled {
				logs.Error(errors.New("watching scene failed").Wrap(err))
			}
		}()
	}

	auth := raidohttp.TokenVerifier{Token: conf.AuthToken}

	var service http.ServeMux

	service.Handle("/health", raidohttp.HandleWithCORS(http.HandlerFunc(raidohttp.HandleHealthCheck)))
	service.Handle("/version", raidohttp.HandleWithCORS(raidohttp.HandleVersion(version)))
	service.Handle("/ready", raidohttp.HandleWithCORS(raidohttp.HandleReadyCheck(state.Ready)))

	service.Handle("/path", raidohttp.HandleWithCORS(
		raidohttp.VerifyAuthTokenHandler(auth, raidohttp.HandleFindPath(state, flags))))
	service.Handle("/region", raidohttp.HandleWithCORS(
		raidohttp.VerifyAuthTokenHandler(auth, raidohttp.HandleRegion(state))))
	service.Handle("/graph", raidohttp.HandleWithCORS(
		raidohttp.VerifyAuthTokenHandler(auth, raidohttp.HandleGraph(state))))

	service.HandleFunc("/smoke-test", raidohttp.VerifyAuthTokenHandler(auth, smoketest.HandleSmokeTest(ctx, smoketest.Options{
		State:       state,
		Concurrency: conf.SmokeTest.Concurrency,
		SendResult:  reporter.SendResult,
	})))

	service.Handle("/", raidohttp.HandleWithCORS(websocket.Server{
		Handshake: raidohttp.VerifyAuthToken(auth),
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var rh rwebsocket.Handler = &rwebsocket.NavigationHandler{
				ClientIdleTimeout: conf.ClientIdleTimeout,
				Clients:           &clients,
				Modules: []modules.Module{
					&raido.Module{
						State:        state,
						FeatureFlags: flags,
					},
				},
				State:        state,
				FeatureFlags: flags,
				QueryRate:    rate.Limit(conf.QueryRate),
				QueryBurst:   conf.QueryBurst,
			}
			h := rwebsocket.HandlerWithLogs(rh, conf.LogSummaryInterval)
			h = rwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			rwebsocket.Handle(ctx, conn, h)
		},
	}))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", raidohttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", raidohttp.HandleReadyCheck(state.Ready))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("scene_path", conf.ScenePath).
		WithTag("heuristic", opts.Heuristic).
		WithTag("adjacency_mode", opts.AdjacencyMode.String()).
		WithTag("feature_flags", flags.Flags()).
		Info("starting raido server")

	raidohttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			raidohttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func stateOptions(conf config, flags featureflag.FeatureFlag) raido.Options {
	opts := raido.Options{
		MinimumSize:   conf.MinimumSize,
		MaxIterations: conf.MaxIterations,
		Heuristic:     conf.Heuristic,
		AdjacencyMode: navmesh.Symmetric,
	}

	flags.IfSet(featureflag.FlagManhattanHeuristic, func() {
		opts.Heuristic = "manhattan"
	})
	flags.IfSet(featureflag.FlagDirectedAdjacency, func() {
		opts.AdjacencyMode = navmesh.Directed
	})
	return opts
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if conf.ScenePath == "" {
		return errors.New("scene path is required")
	}

	if _, err := scene.FormatFromPath(conf.ScenePath); err != nil {
		return err
	}

	if _, err := navmesh.ParseHeuristic(conf.Heuristic); err != nil {
		return err
	}

	if conf.MinimumSize < 0 {
		return errors.New("minimum size cannot be negative").
			WithTag("minimum_size", conf.MinimumSize)
	}

	if conf.MaxIterations <= 0 {
		return errors.New("max iterations must be greater than 0").
			WithTag("max_iterations", conf.MaxIterations)
	}

	if conf.QueryRate < 0 {
		return errors.New("query rate cannot be negative").
			WithTag("query_rate", conf.QueryRate)
	}

	if conf.SmokeTest.ResultEndpoint != "" {
		if _, err := url.ParseRequestURI(conf.SmokeTest.ResultEndpoint); err != nil {
			return errors.New("invalid smoke test result endpoint").Wrap(err)
		}
	}

	return nil
}
