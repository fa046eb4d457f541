package reconcile

import (
	"sync"
	"time"

	"github.com/unnati-09m/MediQ/pkg/types"
)

// DefaultLogCapacity bounds the activity log ring, matching the number of
// recent entries the staff logs endpoint returns by default.
const DefaultLogCapacity = 50

// Store holds the canonical state of one view session: the client's best
// known copy of server-owned patients, doctors, stats and activity log.
// Every mutation happens under the write lock, so each applied snapshot,
// patch or log entry is atomic with respect to readers.
//
// Precedence is deliberately simple: a full snapshot always replaces the
// slices it carries, regardless of any partial patch applied before or
// after it. There is no ordering metadata; a stale snapshot overwriting a
// fresher patch self-corrects on the next poll.
type Store struct {
	mu sync.RWMutex

	patients     map[int]types.Patient
	patientOrder []int

	doctors     map[int]types.Doctor
	doctorOrder []int

	stats    types.QueueStats
	hasStats bool

	log    []types.LogEntry
	logCap int

	lastSnapshot time.Time
}

// NewStore creates an empty canonical state store
func NewStore(logCapacity int) *Store {
	if logCapacity <= 0 {
		logCapacity = DefaultLogCapacity
	}

	return &Store{
		patients: make(map[int]types.Patient),
		doctors:  make(map[int]types.Doctor),
		logCap:   logCapacity,
	}
}

// ApplyFullSnapshot unconditionally replaces the canonical slices present
// in the snapshot. A nil slice means that slice was not fetched and the
// prior canonical data stays (stale-but-valid); an empty non-nil slice is
// a real replacement that clears the slice.
func (s *Store) ApplyFullSnapshot(patients []types.Patient, doctors []types.Doctor, stats *types.QueueStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patients != nil {
		s.patients = make(map[int]types.Patient, len(patients))
		s.patientOrder = s.patientOrder[:0]
		for _, p := range patients {
			if _, seen := s.patients[p.ID]; !seen {
				s.patientOrder = append(s.patientOrder, p.ID)
			}
			s.patients[p.ID] = p
		}
	}

	if doctors != nil {
		s.doctors = make(map[int]types.Doctor, len(doctors))
		s.doctorOrder = s.doctorOrder[:0]
		for _, d := range doctors {
			if _, seen := s.doctors[d.ID]; !seen {
				s.doctorOrder = append(s.doctorOrder, d.ID)
			}
			s.doctors[d.ID] = d
		}
	}

	if stats != nil {
		s.stats = *stats
		s.hasStats = true
	}

	if patients != nil || doctors != nil || stats != nil {
		s.lastSnapshot = time.Now()
	}
}

// ApplyDoctorPatch shallow-merges a partial doctor update into the
// canonical doctor with the same id. Nil patch fields stay untouched.
// An unknown doctor id is a no-op; the entity will arrive with the next
// snapshot. Patient patches do not exist: patient transitions always
// cross-reference doctor state, so they go through a full snapshot.
func (s *Store) ApplyDoctorPatch(patch types.DoctorPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doctor, ok := s.doctors[patch.DoctorID]
	if !ok {
		return
	}

	if patch.DoctorName != nil {
		doctor.Name = *patch.DoctorName
	}
	if patch.IsActive != nil {
		doctor.IsActive = *patch.IsActive
	}
	if patch.IsOnBreak != nil {
		doctor.IsOnBreak = *patch.IsOnBreak
	}
	if patch.CurrentPatientID != nil {
		id := *patch.CurrentPatientID
		doctor.CurrentPatientID = &id
	}
	doctor.IsAvailable = doctor.IsActive && !doctor.IsOnBreak

	s.doctors[patch.DoctorID] = doctor
}

// ApplyLogEntry prepends an entry to the bounded activity log, evicting
// the oldest entry beyond capacity.
func (s *Store) ApplyLogEntry(entry types.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = append([]types.LogEntry{entry}, s.log...)
	if len(s.log) > s.logCap {
		s.log = s.log[:s.logCap]
	}
}

// ReplaceLog replaces the whole activity log with a fetched snapshot,
// truncated to capacity. Same precedence as any other full snapshot.
func (s *Store) ReplaceLog(entries []types.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) > s.logCap {
		entries = entries[:s.logCap]
	}
	s.log = append([]types.LogEntry(nil), entries...)
}

// Patients returns all canonical patients in server-reported order
func (s *Store) Patients() []types.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Patient, 0, len(s.patientOrder))
	for _, id := range s.patientOrder {
		out = append(out, s.patients[id])
	}
	return out
}

// Patient returns one canonical patient by id
func (s *Store) Patient(id int) (types.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	return p, ok
}

// Doctors returns all canonical doctors in server-reported order
func (s *Store) Doctors() []types.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Doctor, 0, len(s.doctorOrder))
	for _, id := range s.doctorOrder {
		out = append(out, s.doctors[id])
	}
	return out
}

// Doctor returns one canonical doctor by id
func (s *Store) Doctor(id int) (types.Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.doctors[id]
	return d, ok
}

// Stats returns the latest stats snapshot; ok is false before the first
// successful fetch.
func (s *Store) Stats() (types.QueueStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats, s.hasStats
}

// Log returns a copy of the activity log, newest first
func (s *Store) Log() []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]types.LogEntry(nil), s.log...)
}

// LastSnapshotAt reports when a snapshot last landed; zero before the
// first one. Used by health checks to surface staleness.
func (s *Store) LastSnapshotAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSnapshot
}

// Counts returns the current canonical entity counts for metrics
func (s *Store) Counts() (patients, doctors int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.patients), len(s.doctors)
}
