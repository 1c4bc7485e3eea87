package scene

const (
	// The scene description is inconsistent.
	ErrTypeInvalidScene = "invalid_scene"

	// The scene file extension is not supported.
	ErrTypeUnsupportedFormat = "unsupported_scene_format"
)
