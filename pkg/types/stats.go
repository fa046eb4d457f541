package types

import "time"

// QueueStats is the aggregate counter snapshot computed server-side.
// The client treats it as opaque and never recomputes it locally.
type QueueStats struct {
	InQueue        int `json:"in_queue"`
	InConsultation int `json:"in_consultation"`
	CompletedToday int `json:"completed_today"`
	NoShowsToday   int `json:"no_shows_today"`
	AvgWaitMinutes int `json:"avg_wait_minutes"`
	TotalToday     int `json:"total_today"`
}

// LogSeverity classifies activity log entries for display
type LogSeverity string

const (
	SeverityInfo    LogSeverity = "info"
	SeverityWarn    LogSeverity = "warn"
	SeverityError   LogSeverity = "error"
	SeveritySuccess LogSeverity = "success"
)

// LogEntry is one line of the client-side activity feed
type LogEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	Message   string      `json:"message"`
	Severity  LogSeverity `json:"severity"`
}

// EventRecord is a raw event row from the staff logs endpoint
type EventRecord struct {
	ID          int       `json:"id"`
	EventType   string    `json:"event_type"`
	ReferenceID *int      `json:"reference_id"`
	Metadata    string    `json:"metadata"`
	Timestamp   time.Time `json:"timestamp"`
}

// RebalanceResult is the server response to a forced queue rebalance
type RebalanceResult struct {
	Message     string `json:"message"`
	QueueLength int    `json:"queue_length"`
}
