package submit

import "errors"

// Validation errors surfaced before any backend call is made. Each condition
// keeps its own sentinel so the UI layer can present a specific message.
var (
	ErrNoModelSelected    = errors.New("select at least one model")
	ErrEmptyPrompt        = errors.New("prompt is required")
	ErrMissingSourceImage = errors.New("a source image is required for this mode")
	ErrInvalidCount       = errors.New("image count must be at least 1")
)
