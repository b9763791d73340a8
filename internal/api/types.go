package api

import (
	"easel/internal/job"
)

// Operation identifies one job-creation endpoint on the backend queue.
type Operation string

const (
	OpGenerate  Operation = "generate"
	OpVariation Operation = "variation"
	OpEdit      Operation = "edit"
	OpVideo     Operation = "video"
	OpUpscale   Operation = "upscale"
)

// CreateJobRequest carries one job-creation request. When SourceImage is
// non-empty the request is sent as multipart form data with the image
// attached; otherwise it is plain JSON.
type CreateJobRequest struct {
	Model          string               `json:"model"`
	Prompt         string               `json:"prompt,omitempty"`
	NegativePrompt string               `json:"negative_prompt,omitempty"`
	Params         job.GenerationParams `json:"params"`

	SourceImage     []byte `json:"-"`
	SourceImageName string `json:"-"`
}

// CreateJobResponse is the backend's acknowledgement of an accepted job.
type CreateJobResponse struct {
	ID     string     `json:"id"`
	Status job.Status `json:"status"`
}

// Page is one offset-paginated slice of the generations list, newest first.
// The backend's page contents are authoritative; callers replace any held
// page wholesale with a fetched one.
type Page struct {
	Jobs       []job.Job `json:"jobs"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
}

// Generation is the full record for one job including its produced images.
type Generation struct {
	job.Job
	Images []string `json:"images,omitempty"`
}

// CancelAllResponse reports how many active jobs a cancel-all touched.
type CancelAllResponse struct {
	Cancelled int `json:"cancelled"`
}

// DeleteAllResponse reports how many records a delete-all removed.
type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}
