package command

import (
	"context"
	"fmt"

	"github.com/unnati-09m/MediQ/pkg/types"
)

// RegisterPatient registers a new patient through the intake form
func (d *Dispatcher) RegisterPatient(ctx context.Context, req types.RegisterRequest) (*types.Registration, error) {
	var result types.Registration
	err := d.issue(ctx, "patient", "register", func(ctx context.Context) error {
		return d.gw.PostJSON(ctx, "/patients/register", req, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// StartConsultation starts a consultation between a doctor and a waiting
// patient.
func (d *Dispatcher) StartConsultation(ctx context.Context, doctorID, patientID int) error {
	return d.issue(ctx, EntityDoctor(doctorID), "start", func(ctx context.Context) error {
		body := map[string]int{"patient_id": patientID}
		return d.gw.PostJSON(ctx, fmt.Sprintf("/doctors/%d/start-consultation", doctorID), body, nil)
	})
}

// CompleteConsultation completes the doctor's current consultation
func (d *Dispatcher) CompleteConsultation(ctx context.Context, doctorID int) error {
	return d.issue(ctx, EntityDoctor(doctorID), "complete", func(ctx context.Context) error {
		return d.gw.PostJSON(ctx, fmt.Sprintf("/doctors/%d/complete-consultation", doctorID), nil, nil)
	})
}

// SkipPatient pushes a waiting patient to the back of the doctor's queue
func (d *Dispatcher) SkipPatient(ctx context.Context, doctorID, patientID int) error {
	return d.issue(ctx, EntityDoctor(doctorID), "skip", func(ctx context.Context) error {
		body := map[string]int{"patient_id": patientID}
		return d.gw.PostJSON(ctx, fmt.Sprintf("/doctors/%d/skip-patient", doctorID), body, nil)
	})
}

// FlagEmergency escalates a waiting patient to emergency urgency
func (d *Dispatcher) FlagEmergency(ctx context.Context, doctorID, patientID int) error {
	return d.issue(ctx, EntityDoctor(doctorID), "flag", func(ctx context.Context) error {
		body := map[string]int{"patient_id": patientID}
		return d.gw.PostJSON(ctx, fmt.Sprintf("/doctors/%d/flag-emergency", doctorID), body, nil)
	})
}

// RegisterWalkIn registers a walk-in patient from the staff desk
func (d *Dispatcher) RegisterWalkIn(ctx context.Context, req types.WalkInRequest) (*types.Registration, error) {
	var result types.Registration
	err := d.issue(ctx, EntityQueue, "walkin", func(ctx context.Context) error {
		return d.gw.PostJSON(ctx, "/staff/register-walkin", req, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddEmergency inserts an emergency patient at the head of the queue
func (d *Dispatcher) AddEmergency(ctx context.Context, req types.EmergencyRequest) (*types.Registration, error) {
	var result types.Registration
	err := d.issue(ctx, EntityQueue, "emergency", func(ctx context.Context) error {
		return d.gw.PostJSON(ctx, "/staff/add-emergency", req, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkNoShow marks a waiting patient as a no-show
func (d *Dispatcher) MarkNoShow(ctx context.Context, patientID int) error {
	return d.issue(ctx, EntityPatient(patientID), "noshow", func(ctx context.Context) error {
		return d.gw.PostJSON(ctx, fmt.Sprintf("/staff/mark-noshow/%d", patientID), nil, nil)
	})
}

// Rebalance forces the server to re-score and reorder the whole queue
func (d *Dispatcher) Rebalance(ctx context.Context) (*types.RebalanceResult, error) {
	var result types.RebalanceResult
	err := d.issue(ctx, EntityQueue, "rebalance", func(ctx context.Context) error {
		return d.gw.PostJSON(ctx, "/staff/rebalance", nil, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ToggleDoctor updates a doctor's active or on-break flags. Nil flags are
// left unchanged server-side.
func (d *Dispatcher) ToggleDoctor(ctx context.Context, doctorID int, isActive, isOnBreak *bool) (*types.ToggleDoctorResult, error) {
	var result types.ToggleDoctorResult
	err := d.issue(ctx, EntityDoctor(doctorID), "toggle", func(ctx context.Context) error {
		body := types.ToggleDoctorRequest{IsActive: isActive, IsOnBreak: isOnBreak}
		return d.gw.PutJSON(ctx, fmt.Sprintf("/staff/toggle-doctor/%d", doctorID), body, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
