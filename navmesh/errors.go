package navmesh

// Error types returned by the navmesh package. They are meant to be checked
// with errors.IsType from go-tooling.
const (
	// A query point lies outside the indexed region.
	ErrTypeOutOfBounds = "out_of_bounds"

	// The frontier was exhausted without reaching the goal.
	ErrTypeNoPath = "no_path"

	// The search gave up after popping the maximum number of frontier
	// entries.
	ErrTypeIterationBudgetExceeded = "iteration_budget_exceeded"

	// A compass operation was called on an undefined pair of directions.
	ErrTypeInvalidDirection = "invalid_direction_algebra"

	// A parent region contains a point that none of its children contain.
	ErrTypeMalformedIndex = "malformed_index"

	// The index was built with invalid parameters or is used out of order.
	ErrTypeInvalidIndex = "invalid_index"

	// The requested heuristic name is not known.
	ErrTypeUnknownHeuristic = "unknown_heuristic"
)
