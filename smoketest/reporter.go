package smoketest

import (
	"bytes"
	"context"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeReportRejected = "smoke_test_report_rejected"
)

// Reporter forwards smoke test results to a remote endpoint.
type Reporter struct {
	// The URL results are posted to. Results are only logged when empty.
	Endpoint string

	// Results waiting to be reported. Must be buffered.
	ResultChan chan Results

	Transport http.RoundTripper
}

// SendResult queues the given results. It does not block when the queue is
// full: the results are logged and dropped.
func (r Reporter) SendResult(ctx context.Context, res Results) error {
	select {
	case <-ctx.Done():
		return ctx.Err()

	case r.ResultChan <- res:
		return nil

	default:
		return errors.New("smoke test result queue is full").
			WithTag("build_id", res.BuildID).
			WithTag("status", res.Status)
	}
}

// HandleResults reports queued results until the given context is done.
func (r Reporter) HandleResults(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case res := <-r.ResultChan:
				entry := logs.WithTag("build_id", res.BuildID).
					WithTag("status", res.Status).
					WithTag("probes", len(res.Probes)).
					WithTag("latency_ms", res.LatencyMilliSec)

				if res.Status != StatusSuccess {
					entry.Warn(errors.New("smoke test failed"))
				} else {
					entry.Info("smoke test succeeded")
				}

				if r.Endpoint == "" {
					continue
				}

				if err := instrumentReport(r.Endpoint, func() error {
					return r.post(ctx, res)
				}); err != nil {
					logs.Warn(errors.New("reporting smoke test result failed").
						WithTag("endpoint", r.Endpoint).
						Wrap(err))
				}
			}
		}
	}()
}

func (r Reporter) post(ctx context.Context, res Results) error {
	body, err := json.Marshal(res)
	if err != nil {
		return errors.New("encoding smoke test result failed").Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.New("creating request failed").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := http.Client{Transport: r.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return errors.New("posting smoke test result failed").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("smoke test result rejected").
			WithType(ErrTypeReportRejected).
			WithTag("status_code", resp.StatusCode)
	}
	return nil
}
