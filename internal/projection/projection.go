package projection

import (
	"fmt"
	"time"

	"github.com/unnati-09m/MediQ/internal/reconcile"
	"github.com/unnati-09m/MediQ/pkg/types"
)

// Projector derives view-specific slices from canonical state. Every
// method is a pure read: nothing here mutates the store, and the waiting
// list is never re-sorted client-side since ordering is the server's
// urgency engine's job.
type Projector struct {
	store *reconcile.Store
}

// Kanban is the partition of all patients by status for the staff board
type Kanban struct {
	Waiting        []types.Patient
	InConsultation []types.Patient
	Completed      []types.Patient
	NoShow         []types.Patient
}

// DoctorCard pairs a doctor with the display form of their current token
type DoctorCard struct {
	Doctor       types.Doctor
	CurrentToken string
}

// New creates a projector over one canonical store
func New(store *reconcile.Store) *Projector {
	return &Projector{store: store}
}

// ActivePatient returns the patient in consultation with the given
// doctor. Doctor id 0 matches the first patient in consultation with any
// doctor, for single-clinician views.
func (p *Projector) ActivePatient(doctorID int) (types.Patient, bool) {
	for _, patient := range p.store.Patients() {
		if patient.Status != types.StatusInConsultation {
			continue
		}
		if doctorID == 0 {
			return patient, true
		}
		if patient.AssignedDoctorID != nil && *patient.AssignedDoctorID == doctorID {
			return patient, true
		}
	}
	return types.Patient{}, false
}

// WaitingList returns waiting patients in the exact order the server
// reported them.
func (p *Projector) WaitingList() []types.Patient {
	var waiting []types.Patient
	for _, patient := range p.store.Patients() {
		if patient.Status == types.StatusWaiting {
			waiting = append(waiting, patient)
		}
	}
	return waiting
}

// Columns partitions all patients by status. Completed and no-show
// columns are capped for display when the caps are positive.
func (p *Projector) Columns(completedCap, noShowCap int) Kanban {
	var kanban Kanban
	for _, patient := range p.store.Patients() {
		switch patient.Status {
		case types.StatusWaiting:
			kanban.Waiting = append(kanban.Waiting, patient)
		case types.StatusInConsultation:
			kanban.InConsultation = append(kanban.InConsultation, patient)
		case types.StatusCompleted:
			kanban.Completed = append(kanban.Completed, patient)
		case types.StatusNoShow:
			kanban.NoShow = append(kanban.NoShow, patient)
		}
	}

	if completedCap > 0 && len(kanban.Completed) > completedCap {
		kanban.Completed = kanban.Completed[:completedCap]
	}
	if noShowCap > 0 && len(kanban.NoShow) > noShowCap {
		kanban.NoShow = kanban.NoShow[:noShowCap]
	}

	return kanban
}

// DoctorCards returns per-doctor status cards for the availability panel
func (p *Projector) DoctorCards() []DoctorCard {
	doctors := p.store.Doctors()
	cards := make([]DoctorCard, 0, len(doctors))
	for _, doctor := range doctors {
		card := DoctorCard{Doctor: doctor}
		if doctor.CurrentPatientToken != nil {
			card.CurrentToken = fmt.Sprintf("#%03d", *doctor.CurrentPatientToken)
		}
		cards = append(cards, card)
	}
	return cards
}

// NowServing returns every patient currently in consultation, for the
// public display board.
func (p *Projector) NowServing() []types.Patient {
	var serving []types.Patient
	for _, patient := range p.store.Patients() {
		if patient.Status == types.StatusInConsultation {
			serving = append(serving, patient)
		}
	}
	return serving
}

// UpNext returns the first n waiting patients in server order
func (p *Projector) UpNext(n int) []types.Patient {
	waiting := p.WaitingList()
	if n > 0 && len(waiting) > n {
		waiting = waiting[:n]
	}
	return waiting
}

// Stats returns the latest aggregate snapshot
func (p *Projector) Stats() (types.QueueStats, bool) {
	return p.store.Stats()
}

// Ticker returns the newest n activity entries for the feed
func (p *Projector) Ticker(n int) []types.LogEntry {
	entries := p.store.Log()
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// ConsultationElapsed reports how long the patient has been in
// consultation at the given instant. Callers re-evaluate this on a local
// render tick; nothing increments a counter, so a tab left open cannot
// drift from the stored server timestamp.
func ConsultationElapsed(patient types.Patient, now time.Time) time.Duration {
	if patient.ConsultationStart == nil {
		return 0
	}
	elapsed := now.Sub(*patient.ConsultationStart)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// WaitElapsed reports how long the patient has been waiting since
// registration at the given instant.
func WaitElapsed(patient types.Patient, now time.Time) time.Duration {
	elapsed := now.Sub(patient.CreatedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// FormatElapsed renders a duration the way the boards show timers:
// "MM:SS" under an hour, "H:MM:SS" beyond.
func FormatElapsed(d time.Duration) string {
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
