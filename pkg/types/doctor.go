package types

// Doctor represents a doctor's current status as reported by the queue service
type Doctor struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Specialization      string `json:"specialization"`
	IsActive            bool   `json:"is_active"`
	IsOnBreak           bool   `json:"is_on_break"`
	IsAvailable         bool   `json:"is_available"`
	CurrentPatientID    *int   `json:"current_patient_id"`
	CurrentPatientToken *int   `json:"current_patient_token"`
	TotalConsultedToday int    `json:"total_consulted_today"`
}

// DoctorPatch is a partial doctor update delivered over the push channel.
// Nil fields were absent from the payload and must be left unchanged when
// the patch is merged.
type DoctorPatch struct {
	DoctorID         int     `json:"doctor_id"`
	DoctorName       *string `json:"doctor_name,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty"`
	IsOnBreak        *bool   `json:"is_on_break,omitempty"`
	CurrentPatientID *int    `json:"current_patient_id,omitempty"`
}

// ToggleDoctorRequest is the payload for toggling doctor availability.
// Nil fields are omitted and left untouched server-side.
type ToggleDoctorRequest struct {
	IsActive  *bool `json:"is_active,omitempty"`
	IsOnBreak *bool `json:"is_on_break,omitempty"`
}

// ToggleDoctorResult is the server response to a doctor toggle
type ToggleDoctorResult struct {
	DoctorID           int    `json:"doctor_id"`
	DoctorName         string `json:"doctor_name"`
	IsActive           bool   `json:"is_active"`
	IsOnBreak          bool   `json:"is_on_break"`
	IsAvailable        bool   `json:"is_available"`
	ReassignedPatients []int  `json:"reassigned_patients"`
	Message            string `json:"message"`
}
