package submit

import (
	"easel/internal/api"
	"easel/internal/job"
)

// RouteOperation maps a mode plus source-image presence to the backend
// operation that creates the job. A generate request with a source image
// attached is a variation on the wire even though both are presented to the
// user as plain image jobs; retry depends on this mapping being a pure
// function of the persisted job record.
func RouteOperation(mode job.Mode, hasSourceImage bool) api.Operation {
	switch mode {
	case job.ModeEdit:
		return api.OpEdit
	case job.ModeVideo:
		return api.OpVideo
	case job.ModeUpscale:
		return api.OpUpscale
	case job.ModeVariation:
		return api.OpVariation
	default:
		if hasSourceImage {
			return api.OpVariation
		}
		return api.OpGenerate
	}
}
