package rabbitmq

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventPayload struct {
	ID      uuid.UUID       `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// CheckResultPayload is the executor's wire format for one probe
// result.
type CheckResultPayload struct {
	MonitorID        uuid.UUID `json:"monitor_id"`
	Region           string    `json:"region"`
	Timestamp        time.Time `json:"timestamp"`
	LatencyMs        int64     `json:"latency_ms"`
	StatusCode       int       `json:"status_code"`
	Error            string    `json:"error,omitempty"`
	AssertionsPassed bool      `json:"assertions_passed"`
}
