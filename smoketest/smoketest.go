package smoketest

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/modules/raido"
	"github.com/aukilabs/raido/scene"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	// DefaultConcurrency is the number of probes run at once.
	DefaultConcurrency = 4
)

// Request is the body of a smoke test request. Scene probes are used when no
// probe is given.
type Request struct {
	Probes  []scene.Probe `json:"probes,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty"`
}

// ProbeResult is the outcome of a probe.
type ProbeResult struct {
	Name            string  `json:"name"`
	Status          string  `json:"status"`
	QueryStatus     string  `json:"query_status"`
	Expected        *bool   `json:"expected,omitempty"`
	Hops            int     `json:"hops"`
	Iterations      int     `json:"iterations"`
	LatencyMilliSec float64 `json:"latency_ms"`
}

// Results are the outcomes of a smoke test run.
type Results struct {
	BuildID         string        `json:"build_id"`
	StartedAt       time.Time     `json:"started_at"`
	Status          string        `json:"status"`
	LatencyMilliSec float64       `json:"latency_ms"`
	Probes          []ProbeResult `json:"probes"`
}

// Run runs the given probes concurrently against the current navigation
// index. All probes run on the same index even when a rebuild happens during
// the run.
func Run(ctx context.Context, state *raido.State, probes []scene.Probe, concurrency int) (Results, error) {
	nav, err := state.Navigation()
	if err != nil {
		return Results{}, err
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	start := time.Now()
	res := Results{
		BuildID:   nav.Index.BuildID,
		StartedAt: start,
		Status:    StatusSuccess,
		Probes:    make([]ProbeResult, len(probes)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, p := range probes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res.Probes[i] = runProbe(state, nav, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Results{}, errors.New("running smoke test failed").
			WithTag("build_id", res.BuildID).
			Wrap(err)
	}

	for _, p := range res.Probes {
		if p.Status != StatusSuccess {
			res.Status = StatusFailed
		}
	}
	res.LatencyMilliSec = milliseconds(time.Since(start))

	instrumentSmokeTest(res)
	return res, nil
}

func runProbe(state *raido.State, nav *raido.Navigation, p scene.Probe) ProbeResult {
	start := time.Now()

	res := ProbeResult{
		Name:     p.Name,
		Expected: p.Reachable,
	}

	path, err := state.FindPathOn(nav, p.From.Point(), p.To.Point(), "")
	res.LatencyMilliSec = milliseconds(time.Since(start))

	reachable := err == nil
	switch {
	case err == nil:
		res.QueryStatus = messages.StatusOK
		res.Hops = path.Hops()
		res.Iterations = path.Iterations

	default:
		status, ok := raido.QueryStatus(err)
		if !ok {
			status = raido.ErrorCode(err)
		}
		res.QueryStatus = status
	}

	res.Status = StatusSuccess
	if p.Reachable != nil && *p.Reachable != reachable {
		res.Status = StatusFailed
	}
	if p.Reachable == nil && !reachable && res.QueryStatus != messages.StatusNoPath {
		res.Status = StatusFailed
	}
	return res
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

type Options struct {
	State *raido.State

	// The number of probes run at once.
	Concurrency int

	// Sends the results of a smoke test.
	SendResult func(context.Context, Results) error
}

type testCtxKey string

var testCtxKeyValue testCtxKey = "test-context"

type testContext struct {
	context.Context
	Cancel func()
}

// HandleSmokeTest starts a smoke test on the current navigation index and
// sends its results with opts.SendResult once done.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		b, err := io.ReadAll(r.Body)
		if err != nil {
			httpcmn.InternalServerError(w, errors.New("reading body failed").Wrap(err))
			return
		}

		var req Request
		if len(b) != 0 {
			if err := json.Unmarshal(b, &req); err != nil {
				httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
				return
			}
		}

		nav, err := opts.State.Navigation()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		probes := req.Probes
		if len(probes) == 0 {
			probes = nav.Scene.Probes
		}

		region := nav.Index.Bounds()
		for _, p := range probes {
			if !region.Contains(p.From.Point()) || !region.Contains(p.To.Point()) {
				httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
				return
			}
		}

		go func() {
			defer func() {
				// if context is of testContext
				// cancel context on exit to signal function exited
				// this is used for testing
				if tctx := ctx.Value(testCtxKeyValue); tctx != nil {
					testCtx := tctx.(testContext)
					if testCtx.Cancel != nil {
						testCtx.Cancel()
					}
				}
			}()

			runCtx := ctx
			if req.Timeout > 0 {
				var cancel func()
				runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
				defer cancel()
			}

			res, err := Run(runCtx, opts.State, probes, opts.Concurrency)
			if err != nil {
				logs.Warn(err)
				res.Status = StatusFailed
			}

			if opts.SendResult == nil {
				return
			}
			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("build_id", res.BuildID).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}
