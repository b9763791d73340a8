package channel

import "encoding/json"

// Well-known channel names published by the backend.
const (
	ChannelQueue       = "queue"
	ChannelGenerations = "generations"
	ChannelModels      = "models"
)

// Event types carried on the queue and generations channels.
const (
	EventJobCreated         = "job_created"
	EventJobUpdated         = "job_updated"
	EventJobCompleted       = "job_completed"
	EventJobFailed          = "job_failed"
	EventGenerationComplete = "generation_complete"
)

// Control frame types emitted by the server.
const (
	typeConnected  = "connected"
	typeSubscribed = "subscribed"
)

// Envelope is the decoded form of every server frame. Broadcast frames carry
// Channel, Type, and Data; control frames leave Channel empty.
type Envelope struct {
	Channel   string          `json:"channel,omitempty"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Channels  []string        `json:"channels,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// IsControl reports whether the envelope is a connection-level frame rather
// than a channel broadcast.
func (e Envelope) IsControl() bool {
	return e.Type == typeConnected || e.Type == typeSubscribed
}

type subscribeFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
}

type messageFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
