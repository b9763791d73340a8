package job

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a generation job.
type Status string

const (
	StatusPending      Status = "pending"
	StatusModelLoading Status = "model_loading"
	StatusProcessing   Status = "processing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusCancelled    Status = "cancelled"
)

// Mode identifies which backend operation created a job and which optional
// parameters are meaningful for it.
type Mode string

const (
	ModeGenerate  Mode = "generate"
	ModeVariation Mode = "variation"
	ModeEdit      Mode = "edit"
	ModeVideo     Mode = "video"
	ModeUpscale   Mode = "upscale"
)

var allStatuses = []Status{
	StatusPending,
	StatusModelLoading,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var allModes = []Mode{
	ModeGenerate,
	ModeVariation,
	ModeEdit,
	ModeVideo,
	ModeUpscale,
}

var modeSet = func() map[Mode]struct{} {
	set := make(map[Mode]struct{}, len(allModes))
	for _, mode := range allModes {
		set[mode] = struct{}{}
	}
	return set
}()

var activeStatuses = map[Status]struct{}{
	StatusPending:      {},
	StatusModelLoading: {},
	StatusProcessing:   {},
}

// statusRank orders statuses along the one-directional lifecycle. Terminal
// statuses share a rank because no transition ever leaves them.
var statusRank = map[Status]int{
	StatusPending:      0,
	StatusModelLoading: 1,
	StatusProcessing:   2,
	StatusCompleted:    3,
	StatusFailed:       3,
	StatusCancelled:    3,
}

// Job is the client-side record of one accepted generation request.
// Records are created by submission, mutated only by the backend, and
// removed from view only by explicit delete actions.
type Job struct {
	ID             string           `json:"id"`
	Status         Status           `json:"status"`
	Mode           Mode             `json:"mode"`
	Model          string           `json:"model"`
	Prompt         string           `json:"prompt"`
	NegativePrompt string           `json:"negative_prompt,omitempty"`
	Params         GenerationParams `json:"params"`
	ImageCount     int              `json:"image_count"`
	FirstImageURL  string           `json:"first_image_url,omitempty"`
	SourceImage    string           `json:"source_image,omitempty"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// GenerationParams captures the tunable generation settings shared across
// modes plus the mode-specific extensions. Zero values mean "unset" and are
// omitted on the wire; Seed is a pointer so a nil seed asks the backend to
// pick one randomly.
type GenerationParams struct {
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Seed           *uint32 `json:"seed,omitempty"`
	CfgScale       float64 `json:"cfg_scale,omitempty"`
	SamplingMethod string  `json:"sampling_method,omitempty"`
	SampleSteps    int     `json:"sample_steps,omitempty"`
	ClipSkip       int     `json:"clip_skip,omitempty"`

	// Variation only.
	Strength float64 `json:"strength,omitempty"`

	// Video only.
	VideoFrames int     `json:"video_frames,omitempty"`
	VideoFPS    int     `json:"video_fps,omitempty"`
	FlowShift   float64 `json:"flow_shift,omitempty"`

	// Upscale only.
	UpscaleFactor int    `json:"upscale_factor,omitempty"`
	ResizeMode    string `json:"resize_mode,omitempty"`
	TargetWidth   int    `json:"target_width,omitempty"`
	TargetHeight  int    `json:"target_height,omitempty"`
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := modeSet[normalized]
	return normalized, ok
}

// IsActive reports whether a job with the given status is still in flight.
// Active jobs can be cancelled and are excluded from delete-eligible bulk
// operations unless the backend is explicitly told otherwise.
func IsActive(status Status) bool {
	_, ok := activeStatuses[status]
	return ok
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(status Status) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminalFailure reports whether the job ended without producing output.
// Failed and cancelled jobs are the ones offered retry and log inspection.
func IsTerminalFailure(status Status) bool {
	return status == StatusFailed || status == StatusCancelled
}

// CanTransition reports whether moving from one status to another respects
// the one-directional lifecycle. Skipping model_loading is legal; leaving a
// terminal status is not. A status never transitions to itself.
func CanTransition(from, to Status) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	if IsTerminal(from) {
		return false
	}
	return toRank > fromRank
}

// IsActive reports whether the job is still in flight.
func (j *Job) IsActive() bool {
	return IsActive(j.Status)
}

// CanRetry reports whether the job's stored parameters may be resubmitted as
// a fresh job.
func (j *Job) CanRetry() bool {
	return IsTerminalFailure(j.Status)
}

// NeedsSourceImage reports whether the mode requires source image bytes when
// a creation request is built.
func (m Mode) NeedsSourceImage() bool {
	switch m {
	case ModeEdit, ModeUpscale, ModeVariation:
		return true
	default:
		return false
	}
}

// RequiresPrompt reports whether the mode rejects an empty prompt.
func (m Mode) RequiresPrompt() bool {
	switch m {
	case ModeUpscale, ModeVideo:
		return false
	default:
		return true
	}
}
