package job

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// DisplayLabel renders a status for user-facing output ("model_loading"
// becomes "Model Loading").
func (s Status) DisplayLabel() string {
	return titleCaser.String(strings.ReplaceAll(string(s), "_", " "))
}

// DisplayLabel renders a mode for user-facing output. Generate and variation
// are both presented as "Image": a variation is an image job with a source
// image attached, and the distinction only matters for backend routing.
func (m Mode) DisplayLabel() string {
	switch m {
	case ModeGenerate, ModeVariation:
		return "Image"
	default:
		return titleCaser.String(string(m))
	}
}
