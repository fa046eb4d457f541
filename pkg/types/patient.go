package types

import (
	"fmt"
	"time"
)

// PatientStatus represents the lifecycle state of a patient in the queue
type PatientStatus string

const (
	StatusWaiting        PatientStatus = "waiting"
	StatusInConsultation PatientStatus = "in_consultation"
	StatusCompleted      PatientStatus = "completed"
	StatusNoShow         PatientStatus = "no_show"
)

// Patient represents a patient entry as reported by the queue service.
// Queue entries for waiting patients carry position, estimated wait and
// priority score; patients in consultation report zeroes for those fields.
type Patient struct {
	ID                   int           `json:"id"`
	TokenNumber          int           `json:"token_number"`
	Name                 string        `json:"name"`
	Phone                string        `json:"phone,omitempty"`
	Reason               string        `json:"reason"`
	Urgency              int           `json:"urgency"`
	Status               PatientStatus `json:"status"`
	AssignedDoctorID     *int          `json:"assigned_doctor_id"`
	AssignedDoctorName   string        `json:"assigned_doctor_name,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	ConsultationStart    *time.Time    `json:"consultation_start,omitempty"`
	ConsultationEnd      *time.Time    `json:"consultation_end,omitempty"`
	QueuePosition        int           `json:"queue_position"`
	EstimatedWaitMinutes int           `json:"estimated_wait_minutes"`
	PriorityScore        float64       `json:"priority_score"`
}

// TokenString returns the display form of the token number, zero-padded
// to three digits the way the clinic boards show it.
func (p Patient) TokenString() string {
	return fmt.Sprintf("#%03d", p.TokenNumber)
}

// RegisterRequest is the payload for registering a new patient
type RegisterRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Reason  string `json:"reason"`
	Urgency int    `json:"urgency"`
}

// WalkInRequest is the payload for a staff-registered walk-in patient
type WalkInRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Reason  string `json:"reason"`
	Urgency int    `json:"urgency"`
}

// EmergencyRequest is the payload for a staff-added emergency patient.
// The server fills sensible defaults for omitted fields.
type EmergencyRequest struct {
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Registration is the server response to a successful patient registration
type Registration struct {
	Patient              Patient `json:"patient"`
	TokenNumber          int     `json:"token_number"`
	QueuePosition        int     `json:"queue_position"`
	EstimatedWaitMinutes int     `json:"estimated_wait_minutes"`
	Message              string  `json:"message"`
}
