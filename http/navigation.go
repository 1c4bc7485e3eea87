package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/raido/featureflag"
	"github.com/aukilabs/raido/messages"
	"github.com/aukilabs/raido/modules/raido"
	"github.com/golang/geo/r2"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeInvalidPoint = "invalid_point"
)

// HandleFindPath answers GET /path?from=x,y&to=x,y[&heuristic=name].
func HandleFindPath(state *raido.State, flags featureflag.FeatureFlag) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		query := r.URL.Query()

		from, err := parsePoint(query.Get("from"))
		if err != nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		to, err := parsePoint(query.Get("to"))
		if err != nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		path, err := state.FindPath(from, to, query.Get("heuristic"))
		if err != nil {
			handleQueryError(w, r, err, messages.FindPathResponse{})
			return
		}

		res := messages.FindPathResponseFromPath(path)
		flags.IfSet(featureflag.FlagDisableWaypoints, func() {
			res.Waypoints = nil
		})
		writeJSON(w, http.StatusOK, res)
	}
}

// HandleRegion answers GET /region?at=x,y.
func HandleRegion(state *raido.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		at, err := parsePoint(r.URL.Query().Get("at"))
		if err != nil {
			httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
			return
		}

		info, err := state.Region(at)
		if err != nil {
			handleQueryError(w, r, err, messages.RegionResponse{})
			return
		}

		writeJSON(w, http.StatusOK, raido.RegionResponse(info))
	}
}

// HandleGraph answers GET /graph with the statistics of the current
// navigation index.
func HandleGraph(state *raido.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		stats, err := state.GraphInfo()
		if err != nil {
			handleQueryError(w, r, err, nil)
			return
		}

		writeJSON(w, http.StatusOK, messages.GraphInfoResponse{Stats: stats})
	}
}

// handleQueryError writes the status of a failed query into res. Query
// outcomes caused by the request are 400s, exhausted searches are 200s.
func handleQueryError(w http.ResponseWriter, r *http.Request, err error, res any) {
	if status, ok := raido.QueryStatus(err); ok {
		code := http.StatusOK
		if status == messages.StatusOutOfBounds || status == messages.StatusUnknownHeuristic {
			code = http.StatusBadRequest
		}

		switch res := res.(type) {
		case messages.FindPathResponse:
			res.Status = status
			writeJSON(w, code, res)

		case messages.RegionResponse:
			res.Status = status
			writeJSON(w, code, res)

		default:
			writeJSON(w, code, messages.ErrorResponse{Code: status})
		}
		return
	}

	code := raido.ErrorCode(err)
	if code == messages.ErrorCodeNotReady {
		writeJSON(w, http.StatusServiceUnavailable, messages.ErrorResponse{
			Code:    code,
			Message: err.Error(),
		})
		return
	}

	logs.Error(errors.New("navigation query failed").
		WithTag("path", r.URL.Path).
		Wrap(err))
	httpcmn.InternalServerError(w, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("encoding response failed").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

// parsePoint parses a point encoded as "x,y".
func parsePoint(s string) (r2.Point, error) {
	x, y, ok := strings.Cut(s, ",")
	if !ok {
		return r2.Point{}, errors.New("point is not formatted as x,y").
			WithType(ErrTypeInvalidPoint).
			WithTag("point", s)
	}

	px, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return r2.Point{}, errors.New("parsing point x failed").
			WithType(ErrTypeInvalidPoint).
			WithTag("point", s).
			Wrap(err)
	}

	py, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
	if err != nil {
		return r2.Point{}, errors.New("parsing point y failed").
			WithType(ErrTypeInvalidPoint).
			WithTag("point", s).
			Wrap(err)
	}

	return r2.Point{X: px, Y: py}, nil
}
