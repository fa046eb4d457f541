package poll

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unnati-09m/MediQ/pkg/types"
)

func TestDescribeEvent(t *testing.T) {
	doctorID := 3

	tests := []struct {
		name     string
		record   types.EventRecord
		message  string
		severity types.LogSeverity
	}{
		{
			name:     "registration",
			record:   types.EventRecord{EventType: "patient_registered", Metadata: `{"token":12}`},
			message:  "Token #012 registered",
			severity: types.SeverityInfo,
		},
		{
			name:     "walk-in",
			record:   types.EventRecord{EventType: "walkin_registered", Metadata: `{"token":4}`},
			message:  "Walk-in token #004 registered",
			severity: types.SeveritySuccess,
		},
		{
			name:     "emergency insertion",
			record:   types.EventRecord{EventType: "emergency_added", Metadata: `{"token":99}`},
			message:  "Emergency token #099 added, queue reshuffled",
			severity: types.SeverityError,
		},
		{
			name:     "no-show",
			record:   types.EventRecord{EventType: "patient_noshow", Metadata: `{"token":7}`},
			message:  "Token #007 marked as no-show",
			severity: types.SeverityError,
		},
		{
			name:     "doctor back on duty",
			record:   types.EventRecord{EventType: "doctor_toggled", ReferenceID: &doctorID, Metadata: `{"is_active":true}`},
			message:  "Doctor 3 marked on duty",
			severity: types.SeveritySuccess,
		},
		{
			name:     "missing metadata token",
			record:   types.EventRecord{EventType: "patient_skipped"},
			message:  "Token #? skipped",
			severity: types.SeverityWarn,
		},
		{
			name:     "broken metadata blob is tolerated",
			record:   types.EventRecord{EventType: "consultation_started", Metadata: `{not json`},
			message:  "Token #? consultation started",
			severity: types.SeverityInfo,
		},
		{
			name:     "unknown event type passes through",
			record:   types.EventRecord{EventType: "schema_migrated"},
			message:  "schema_migrated",
			severity: types.SeverityInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, severity := describeEvent(tt.record)
			assert.Equal(t, tt.message, message)
			assert.Equal(t, tt.severity, severity)
		})
	}
}
