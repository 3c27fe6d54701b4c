package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAnalysisCompleted EventType = "analysis_completed"
	EventAnalysisFailed    EventType = "analysis_failed"
	EventArtifactsEvicted  EventType = "artifacts_evicted"
)

// Event represents a lifecycle event emitted by the analysis pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AnalysisCompletedPayload payload.
type AnalysisCompletedPayload struct {
	MarkdownHandle  string `json:"markdown_handle"`
	JSONHandle      string `json:"json_handle"`
	TicketsAnalyzed int    `json:"tickets_analyzed"`
	ModelUsed       string `json:"model_used"`
	MockMode        bool   `json:"mock_mode"`
}

// AnalysisFailedPayload payload.
type AnalysisFailedPayload struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// ArtifactsEvictedPayload payload.
type ArtifactsEvictedPayload struct {
	Removed int `json:"removed"`
}
