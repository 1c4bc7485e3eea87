package featureflag

type Flag string

const (
	// Searches use the manhattan heuristic instead of the euclidean one when
	// requests do not name a heuristic.
	FlagManhattanHeuristic Flag = "MANHATTAN_HEURISTIC"

	// Adjacency graphs are built in directed mode.
	FlagDirectedAdjacency Flag = "DIRECTED_ADJACENCY"

	// Connected clients are not notified when the navigation index is
	// rebuilt.
	FlagDisableRebuildBroadcast Flag = "DISABLE_REBUILD_BROADCAST"

	// Path responses do not carry waypoints.
	FlagDisableWaypoints Flag = "DISABLE_WAYPOINTS"
)
