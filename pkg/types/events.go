package types

// Push channel topic names. The transport guarantees neither ordering nor
// delivery; a missed event is recovered by the next poll.
const (
	TopicQueueUpdated         = "queue_updated"
	TopicDoctorStatusChanged  = "doctor_status_changed"
	TopicPatientStatusChanged = "patient_status_changed"
	TopicEmergencyAdded       = "emergency_added"
)

// QueueUpdatedEvent carries a full queue snapshot pushed by the server
type QueueUpdatedEvent struct {
	Queue []Patient   `json:"queue"`
	Stats *QueueStats `json:"stats,omitempty"`
}

// PatientStatusChangedEvent announces a single patient transition. It is
// informational only: the fields are not enough to patch cross-referenced
// patient/doctor state, so receivers refetch instead of merging.
type PatientStatusChangedEvent struct {
	PatientID   int           `json:"patient_id"`
	TokenNumber int           `json:"token_number"`
	Status      PatientStatus `json:"status"`
	DoctorName  string        `json:"doctor_name,omitempty"`
}

// EmergencyAddedEvent announces an emergency insertion. The actual queue
// data arrives in the queue_updated event that follows it.
type EmergencyAddedEvent struct {
	PatientID   int    `json:"patient_id"`
	TokenNumber int    `json:"token_number"`
	Name        string `json:"name"`
	Urgency     int    `json:"urgency"`
}
