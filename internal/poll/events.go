package poll

import (
	"encoding/json"
	"fmt"

	"github.com/unnati-09m/MediQ/pkg/types"
)

// eventMeta is the subset of the event metadata blob the feed renders
type eventMeta struct {
	Token    int  `json:"token"`
	IsActive bool `json:"is_active"`
}

// mapEventRecords converts raw server event rows into display log entries,
// newest first as returned by the logs endpoint.
func mapEventRecords(records []types.EventRecord) []types.LogEntry {
	entries := make([]types.LogEntry, 0, len(records))
	for _, record := range records {
		message, severity := describeEvent(record)
		entries = append(entries, types.LogEntry{
			Timestamp: record.Timestamp,
			Message:   message,
			Severity:  severity,
		})
	}
	return entries
}

// describeEvent turns one raw event row into a human-readable feed line
func describeEvent(record types.EventRecord) (string, types.LogSeverity) {
	var meta eventMeta
	if record.Metadata != "" {
		// Metadata is a JSON string column; a broken blob is not worth
		// failing the whole feed over.
		_ = json.Unmarshal([]byte(record.Metadata), &meta)
	}

	token := "?"
	if meta.Token > 0 {
		token = fmt.Sprintf("%03d", meta.Token)
	}

	switch record.EventType {
	case "patient_registered":
		return fmt.Sprintf("Token #%s registered", token), types.SeverityInfo
	case "walkin_registered":
		return fmt.Sprintf("Walk-in token #%s registered", token), types.SeveritySuccess
	case "consultation_started":
		return fmt.Sprintf("Token #%s consultation started", token), types.SeverityInfo
	case "consultation_completed":
		return fmt.Sprintf("Token #%s marked complete", token), types.SeveritySuccess
	case "emergency_added":
		return fmt.Sprintf("Emergency token #%s added, queue reshuffled", token), types.SeverityError
	case "emergency_flagged":
		return fmt.Sprintf("Token #%s flagged as emergency", token), types.SeverityWarn
	case "patient_skipped":
		return fmt.Sprintf("Token #%s skipped", token), types.SeverityWarn
	case "patient_noshow":
		return fmt.Sprintf("Token #%s marked as no-show", token), types.SeverityError
	case "doctor_toggled":
		if meta.IsActive {
			return fmt.Sprintf("Doctor %s marked on duty", refID(record)), types.SeveritySuccess
		}
		return fmt.Sprintf("Doctor %s availability changed", refID(record)), types.SeverityWarn
	default:
		return record.EventType, types.SeverityInfo
	}
}

func refID(record types.EventRecord) string {
	if record.ReferenceID == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *record.ReferenceID)
}
