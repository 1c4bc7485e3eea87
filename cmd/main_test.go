package main

import (
	"testing"

	"github.com/aukilabs/raido/featureflag"
	"github.com/aukilabs/raido/navmesh"
	"github.com/stretchr/testify/require"
)

func validTestConfig() config {
	return config{
		PublicEndpoint: "http://localhost:4000",
		ScenePath:      "scene.yaml",
		Heuristic:      "euclidean",
		MaxIterations:  navmesh.DefaultMaxIterations,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*config)
		isValid bool
	}{
		{
			name:    "valid",
			setup:   func(c *config) {},
			isValid: true,
		},
		{
			name:  "invalid public endpoint",
			setup: func(c *config) { c.PublicEndpoint = "localhost" },
		},
		{
			name:  "missing scene path",
			setup: func(c *config) { c.ScenePath = "" },
		},
		{
			name:  "unsupported scene format",
			setup: func(c *config) { c.ScenePath = "scene.toml" },
		},
		{
			name:  "unknown heuristic",
			setup: func(c *config) { c.Heuristic = "chebyshev" },
		},
		{
			name:  "negative minimum size",
			setup: func(c *config) { c.MinimumSize = -1 },
		},
		{
			name:  "no iteration",
			setup: func(c *config) { c.MaxIterations = 0 },
		},
		{
			name:  "negative query rate",
			setup: func(c *config) { c.QueryRate = -1 },
		},
		{
			name:  "invalid smoke test endpoint",
			setup: func(c *config) { c.SmokeTest.ResultEndpoint = "results" },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conf := validTestConfig()
			test.setup(&conf)

			err := validateConfig(conf)
			if test.isValid {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
		})
	}
}

func TestStateOptions(t *testing.T) {
	conf := validTestConfig()
	conf.MinimumSize = 2

	opts := stateOptions(conf, featureflag.New(nil))
	require.Equal(t, "euclidean", opts.Heuristic)
	require.Equal(t, navmesh.Symmetric, opts.AdjacencyMode)
	require.Equal(t, float64(2), opts.MinimumSize)

	opts = stateOptions(conf, featureflag.New([]string{
		string(featureflag.FlagManhattanHeuristic),
		string(featureflag.FlagDirectedAdjacency),
	}))
	require.Equal(t, "manhattan", opts.Heuristic)
	require.Equal(t, navmesh.Directed, opts.AdjacencyMode)
}
