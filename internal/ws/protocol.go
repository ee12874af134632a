// Package ws defines the WebSocket progress protocol. Every message
// carries a type field for routing.
package ws

// Message types for the progress stream.
const (
	TypeInitial   = "initial"   // server → client on subscribe: current job state
	TypeStatus    = "status"    // job lifecycle: queued, processing, completed, failed
	TypeAlgorithm = "algorithm" // per-algorithm progress with result on completion
	TypeHeartbeat = "heartbeat" // keepalive sent every 30 s
	TypeError     = "error"     // protocol error, e.g. unknown job
)

// Job status values in lifecycle order.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Envelope wraps every message with a type field for routing.
type Envelope struct {
	Type string `json:"type"`
}

// JobSummary is the job state snapshot sent in the initial message.
type JobSummary struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// Initial is sent once immediately after a successful subscribe.
type Initial struct {
	Type string     `json:"type"`
	Job  JobSummary `json:"job"`
}

// Status announces a job lifecycle transition.
type Status struct {
	Type      string `json:"type"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	JobID     string `json:"job_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Algorithm announces per-algorithm progress. Result is present on
// completion only.
type Algorithm struct {
	Type      string `json:"type"`
	Algorithm string `json:"algorithm"`
	Status    string `json:"status"`
	Result    any    `json:"result,omitempty"`
}

// Heartbeat is emitted every 30 seconds by a ticker; the read loop
// itself has no timeout.
type Heartbeat struct {
	Type string `json:"type"`
}

// Error reports a protocol-level problem to one subscriber.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
